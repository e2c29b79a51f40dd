package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr   string
	GinMode   string
	JWTSecret string

	// PaymentRequired makes new bookings start as PENDING until the payment
	// collaborator confirms them.
	PaymentRequired bool

	HorizonDays       int
	DelayMaxMinutes   int
	FreeCancelMinutes int

	Pricing Pricing
}

// Pricing holds every tunable the fare engine and loyalty ledger consume.
// Injected explicitly so tests can vary them without shared state.
type Pricing struct {
	SilverMinPoints int64
	GoldMinPoints   int64
	SilverDiscount  float64
	GoldDiscount    float64

	// RedemptionRate is points per one currency unit of discount.
	RedemptionRate float64
	// PointsPerUnit is loyalty points earned per currency unit paid.
	PointsPerUnit float64
	// MaxRedeemShare caps the fraction of a fare payable with points.
	MaxRedeemShare float64

	// Composition: "multiply" composes all matching rule multipliers,
	// "max" lets the highest single multiplier win.
	Composition string
}

func LoadEnv() Env {
	_ = godotenv.Load()

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "super-secret-key-change-me"
	}

	composition := strings.ToLower(strings.TrimSpace(os.Getenv("FARE_COMPOSITION")))
	if composition != "max" {
		composition = "multiply"
	}

	return Env{
		AppAddr:   appAddr,
		GinMode:   strings.TrimSpace(os.Getenv("GIN_MODE")),
		JWTSecret: secret,

		PaymentRequired: envBool("PAYMENT_REQUIRED", false),

		HorizonDays:       envInt("TRIP_HORIZON_DAYS", 30),
		DelayMaxMinutes:   envInt("TRIP_DELAY_MAX_MINUTES", 360),
		FreeCancelMinutes: envInt("TRIP_FREE_CANCEL_MINUTES", 120),

		Pricing: Pricing{
			SilverMinPoints: envInt64("LOYALTY_SILVER_MIN", 5000),
			GoldMinPoints:   envInt64("LOYALTY_GOLD_MIN", 15000),
			SilverDiscount:  envFloat("LOYALTY_SILVER_DISCOUNT", 0.05),
			GoldDiscount:    envFloat("LOYALTY_GOLD_DISCOUNT", 0.10),
			RedemptionRate:  envFloat("LOYALTY_REDEMPTION_RATE", 10),
			PointsPerUnit:   envFloat("LOYALTY_POINTS_PER_UNIT", 1),
			MaxRedeemShare:  envFloat("LOYALTY_MAX_REDEEM_SHARE", 0.5),
			Composition:     composition,
		},
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
