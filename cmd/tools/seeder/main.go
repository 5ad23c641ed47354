package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(ctx, pool)
	seedCatalog(ctx, pool)
	seedProfiles(ctx, pool)
	seedOffersAndTiers(ctx, pool)
	seedCoupons(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding users...")
	users := []struct {
		Name         string
		Email        string
		Password     string
		CustomerType string
		Role         string
	}{
		{"Store Admin", "admin@pawkart.in", "admin-password", "regular", "admin"},
		{"Priya Raman", "priya@example.com", "customer-pass", "subscription", "customer"},
		{"Arjun Mehta", "arjun@example.com", "customer-pass", "regular", "customer"},
		{"Kavya Iyer", "kavya@example.com", "customer-pass", "subscription", "customer"},
		{"Rahul Nair", "rahul@example.com", "customer-pass", "regular", "customer"},
	}
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("hash password for %s: %v", u.Email, err)
		}
		_, err = pool.Exec(ctx, `
INSERT INTO users (name, email, password_hash, customer_type, role)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET customer_type = EXCLUDED.customer_type, role = EXCLUDED.role`,
			u.Name, u.Email, hash, u.CustomerType, u.Role)
		if err != nil {
			log.Fatalf("seed user %s: %v", u.Email, err)
		}
	}

	// Default address for the subscription customer, in the local region.
	_, err := pool.Exec(ctx, `
INSERT INTO addresses (user_id, line1, city, state, pincode, is_default)
SELECT id, '12 Besant Nagar 2nd Main', 'Chennai', 'Tamil Nadu', '600090', true
FROM users WHERE email = 'priya@example.com'
AND NOT EXISTS (SELECT 1 FROM addresses a WHERE a.user_id = users.id)`)
	if err != nil {
		log.Fatalf("seed address: %v", err)
	}
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding catalog...")
	for _, name := range []string{"Dog Food", "Cat Food", "Treats", "Toys", "Grooming"} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			log.Fatalf("seed category %s: %v", name, err)
		}
	}

	products := []struct {
		Name     string
		Category string
		Base     string
		Sale     *string
		WeightKg string
		GSTBps   int
	}{
		{"Adult Dog Kibble 3kg", "Dog Food", "1499.00", ptr("1299.00"), "3.0", 1800},
		{"Puppy Starter Mix 1kg", "Dog Food", "649.00", nil, "1.0", 1800},
		{"Ocean Fish Cat Food 2kg", "Cat Food", "999.00", ptr("899.00"), "2.0", 1800},
		{"Kitten Milk Formula 500g", "Cat Food", "449.00", nil, "0.5", 1800},
		{"Chicken Jerky Treats 200g", "Treats", "299.00", nil, "0.2", 1200},
		{"Dental Chew Sticks 150g", "Treats", "249.00", ptr("199.00"), "0.15", 1200},
		{"Rope Tug Toy", "Toys", "349.00", nil, "0.3", 1200},
		{"Catnip Mouse Set", "Toys", "199.00", nil, "0.1", 1200},
		{"Oatmeal Shampoo 250ml", "Grooming", "399.00", nil, "0.3", 1800},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
INSERT INTO products (name, category_id, base_price, sale_price, sale_starts_at, sale_ends_at, weight_kg, gst_rate_bps, stock_quantity)
SELECT $1, id, $2::numeric, $3::numeric,
       CASE WHEN $3::numeric IS NULL THEN NULL ELSE now() - interval '1 day' END,
       CASE WHEN $3::numeric IS NULL THEN NULL ELSE now() + interval '30 days' END,
       $4::numeric, $5, 100
FROM categories WHERE name = $6
ON CONFLICT DO NOTHING`,
			p.Name, p.Base, p.Sale, p.WeightKg, p.GSTBps, p.Category)
		if err != nil {
			log.Fatalf("seed product %s: %v", p.Name, err)
		}
	}
}

func seedProfiles(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding discount profiles...")
	_, err := pool.Exec(ctx, `
INSERT INTO discount_profiles (customer_type, discount_kind, discount_value, sale_discount_kind, sale_discount_value)
VALUES ('subscription', 'percentage', 10, 'percentage', 5)
ON CONFLICT (customer_type) DO UPDATE SET
  discount_kind = EXCLUDED.discount_kind,
  discount_value = EXCLUDED.discount_value,
  sale_discount_kind = EXCLUDED.sale_discount_kind,
  sale_discount_value = EXCLUDED.sale_discount_value`)
	if err != nil {
		log.Fatalf("seed profile: %v", err)
	}

	// Category override: deeper cut on treats for subscribers.
	_, err = pool.Exec(ctx, `
INSERT INTO discount_profile_categories (profile_id, category_id, discount_kind, discount_value, sale_discount_kind, sale_discount_value)
SELECT p.id, c.id, 'percentage', 15, 'percentage', 7.5
FROM discount_profiles p, categories c
WHERE p.customer_type = 'subscription' AND c.name = 'Treats'
ON CONFLICT (profile_id, category_id) DO UPDATE SET
  discount_value = EXCLUDED.discount_value,
  sale_discount_value = EXCLUDED.sale_discount_value`)
	if err != nil {
		log.Fatalf("seed profile category: %v", err)
	}
}

func seedOffersAndTiers(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding combo offers and delivery tiers...")
	_, err := pool.Exec(ctx, `
INSERT INTO combo_offers (product_ids, original_price, combo_price, start_date, end_date)
SELECT ARRAY[
        (SELECT id FROM products WHERE name = 'Adult Dog Kibble 3kg'),
        (SELECT id FROM products WHERE name = 'Chicken Jerky Treats 200g')
       ],
       1798.00, 1599.00, now() - interval '1 day', now() + interval '60 days'
WHERE NOT EXISTS (SELECT 1 FROM combo_offers)`)
	if err != nil {
		log.Fatalf("seed combo offer: %v", err)
	}

	tiers := []struct {
		Label    string
		UpToKg   string
		Chennai  string
		PanIndia string
	}{
		{"Up to 2kg", "2", "30.00", "60.00"},
		{"Up to 5kg", "5", "50.00", "90.00"},
		{"Up to 10kg", "10", "80.00", "140.00"},
	}
	for _, t := range tiers {
		_, err := pool.Exec(ctx, `
INSERT INTO delivery_fee_tiers (label, up_to_weight_kg, chennai_fee, pan_india_fee)
SELECT $1, $2::numeric, $3::numeric, $4::numeric
WHERE NOT EXISTS (SELECT 1 FROM delivery_fee_tiers WHERE label = $1)`,
			t.Label, t.UpToKg, t.Chennai, t.PanIndia)
		if err != nil {
			log.Fatalf("seed tier %s: %v", t.Label, err)
		}
	}
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding coupons...")
	coupons := []struct {
		Code    string
		Kind    string
		Amount  string
		MinCart *string
	}{
		{"WELCOME10", "percentage", "10", nil},
		{"FLAT100", "fixed", "100", ptr("999")},
	}
	for _, c := range coupons {
		_, err := pool.Exec(ctx, `
INSERT INTO coupons (code, kind, amount, min_cart_total, expires_at)
VALUES ($1, $2, $3::numeric, $4::numeric, now() + interval '90 days')
ON CONFLICT (code) DO NOTHING`, c.Code, c.Kind, c.Amount, c.MinCart)
		if err != nil {
			log.Fatalf("seed coupon %s: %v", c.Code, err)
		}
	}
}

func ptr(s string) *string { return &s }
