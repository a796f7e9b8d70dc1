package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"careerflow/internal/account"
	"careerflow/internal/config"
	"careerflow/internal/database"
)

// Operator tool for granting or inspecting plans, used when a payment was
// confirmed out of band (e.g. a PayPal transfer with no gateway callback).
func main() {
	var (
		email   = flag.String("email", "", "account email (required)")
		plan    = flag.String("plan", "", "plan to grant: SINGLE, TRIAL_MONTHLY or PRO_MONTHLY (omit to inspect)")
		credits = flag.Int("credits", -1, "credit count (defaults to the plan's standard grant)")
		days    = flag.Int("days", 0, "validity in days (defaults to the plan's standard grant)")
		dbHost  = flag.String("db-host", "", "database host (optional, defaults to DATABASE_HOST)")
		dbPort  = flag.Int("db-port", 0, "database port (optional, defaults to DATABASE_PORT)")
		dbName  = flag.String("db-name", "", "database name (optional, defaults to POSTGRES_DB)")
		dbUser  = flag.String("db-user", "", "database user (optional, defaults to POSTGRES_USER)")
		dbPass  = flag.String("db-password", "", "database password (optional, defaults to POSTGRES_PASSWORD)")
		sslMode = flag.String("db-sslmode", "", "database sslmode (optional, defaults to DATABASE_SSLMODE)")
	)
	flag.Parse()

	addr := strings.TrimSpace(*email)
	if addr == "" || !strings.Contains(addr, "@") {
		log.Fatal("missing or malformed required flag: --email")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(&database.Account{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	store := account.NewGormStore(db)
	ctx := context.Background()

	if *plan == "" {
		acct, err := store.FindByEmail(ctx, addr)
		if err != nil {
			log.Fatalf("find account: %v", err)
		}
		fmt.Printf("email=%s plan=%s credits=%d expiry=%s\n",
			acct.Email, acct.PlanType, acct.Credits, acct.ExpiryDate.Format("2006-01-02 15:04"))
		return
	}

	grant, err := resolveGrant(strings.ToUpper(strings.TrimSpace(*plan)), *credits, *days)
	if err != nil {
		log.Fatal(err)
	}

	acct, err := store.Upsert(ctx, addr, grant.PlanType, grant.Credits, grant.DaysValid)
	if err != nil {
		log.Fatalf("upsert account: %v", err)
	}

	fmt.Printf("granted %s to %s: credits=%d expiry=%s\n",
		acct.PlanType, acct.Email, acct.Credits, acct.ExpiryDate.Format("2006-01-02 15:04"))
}

func resolveGrant(plan string, credits, days int) (account.Grant, error) {
	var grant account.Grant
	switch plan {
	case database.PlanSingle:
		grant = account.SinglePassGrant
	case database.PlanTrialMonthly:
		grant = account.TrialGrant
	case database.PlanProMonthly:
		grant = account.ProGrant
	default:
		valid := []string{database.PlanSingle, database.PlanTrialMonthly, database.PlanProMonthly}
		return account.Grant{}, fmt.Errorf("unknown plan %q, expected one of %s", plan, strings.Join(valid, ", "))
	}

	if credits >= 0 {
		grant.Credits = credits
	}
	if days > 0 {
		grant.DaysValid = days
	}
	return grant, nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslMode string) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(host, os.Getenv("DATABASE_HOST"), "localhost"),
		Name:     firstNonEmpty(name, os.Getenv("POSTGRES_DB"), "careerflow"),
		User:     firstNonEmpty(user, os.Getenv("POSTGRES_USER"), "careerflow"),
		Password: firstNonEmpty(password, os.Getenv("POSTGRES_PASSWORD")),
		SSLMode:  firstNonEmpty(sslMode, os.Getenv("DATABASE_SSLMODE"), "disable"),
	}

	cfg.Port = port
	if cfg.Port == 0 {
		if env := os.Getenv("DATABASE_PORT"); env != "" {
			parsed, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			cfg.Port = parsed
		} else {
			cfg.Port = 5432
		}
	}

	if cfg.Password == "" {
		return config.DatabaseConfig{}, fmt.Errorf("database password is required (flag --db-password or POSTGRES_PASSWORD)")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
