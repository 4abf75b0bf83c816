package db

import (
	"database/sql"
	"fmt"
	"log"

	"tctc-backend/config"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func InitDB() error {
	var err error
	connStr := config.GetDBConnString()

	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	err = DB.Ping()
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Create tables
	if err := createTables(); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	return nil
}

func createTables() error {
	userTable := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		student_id TEXT UNIQUE,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		avatar TEXT DEFAULT '',
		is_verified BOOLEAN DEFAULT FALSE,
		verification_token TEXT DEFAULT '',
		reset_password_token TEXT DEFAULT '',
		reset_password_expire TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	courseTable := `
	CREATE TABLE IF NOT EXISTS courses (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		title_bn TEXT DEFAULT '',
		description TEXT DEFAULT '',
		description_bn TEXT DEFAULT '',
		type TEXT NOT NULL DEFAULT 'Private',
		fee REAL NOT NULL,
		duration TEXT DEFAULT '',
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	productTable := `
	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		title_bn TEXT DEFAULT '',
		type TEXT NOT NULL,
		logo_key TEXT DEFAULT 'generic',
		price REAL NOT NULL,
		thumbnail_url TEXT NOT NULL,
		file_url TEXT NOT NULL,
		description TEXT DEFAULT '',
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	admissionTable := `
	CREATE TABLE IF NOT EXISTS admissions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		course_id INTEGER NOT NULL,
		session TEXT NOT NULL,
		father_name TEXT NOT NULL,
		mother_name TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		gender TEXT NOT NULL,
		religion TEXT NOT NULL,
		marital_status TEXT DEFAULT 'Single',
		nid_or_birth_cert TEXT NOT NULL,
		present_address TEXT NOT NULL,
		guardian_phone TEXT NOT NULL,
		photo_url TEXT NOT NULL,
		signature_url TEXT NOT NULL,
		roll_no TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		payment_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT fk_admission_user
			FOREIGN KEY (user_id)
			REFERENCES users(id)
			ON DELETE CASCADE,
		CONSTRAINT fk_admission_course
			FOREIGN KEY (course_id)
			REFERENCES courses(id)
			ON DELETE CASCADE,
		CONSTRAINT admissions_user_course_uniq
			UNIQUE (user_id, course_id)
	);`

	paymentTable := `
	CREATE TABLE IF NOT EXISTS payments (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		source_type TEXT NOT NULL,
		source_id INTEGER NOT NULL,
		amount REAL NOT NULL,
		transaction_fee REAL NOT NULL,
		total_amount REAL NOT NULL,
		payment_method TEXT NOT NULL,
		sender_mobile TEXT DEFAULT '',
		transaction_ref TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		receipt_no TEXT DEFAULT '',
		verified_by INTEGER,
		verified_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT fk_payment_user
			FOREIGN KEY (user_id)
			REFERENCES users(id)
			ON DELETE CASCADE
	);`

	// One active payment per user per source. Rejected payments fall outside
	// the index so resubmission stays possible.
	paymentActiveIndex := `
	CREATE UNIQUE INDEX IF NOT EXISTS payments_active_source_uniq
		ON payments (user_id, source_type, source_id)
		WHERE status IN ('pending', 'verified');`

	paymentChannelTable := `
	CREATE TABLE IF NOT EXISTS payment_channels (
		id SERIAL PRIMARY KEY,
		method_name TEXT NOT NULL,
		number TEXT NOT NULL,
		account_type TEXT DEFAULT 'Personal',
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	onlineClassTable := `
	CREATE TABLE IF NOT EXISTS online_classes (
		id SERIAL PRIMARY KEY,
		course_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		meeting_link TEXT NOT NULL,
		scheduled_at TIMESTAMP,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT fk_class_course
			FOREIGN KEY (course_id)
			REFERENCES courses(id)
			ON DELETE CASCADE
	);`

	// Receipt and roll numbers come from this table via an atomic
	// increment-and-fetch. Never derive them from row counts.
	sequenceTable := `
	CREATE TABLE IF NOT EXISTS sequence_counters (
		scope TEXT PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	);`

	tables := []struct {
		name string
		stmt string
	}{
		{"users", userTable},
		{"courses", courseTable},
		{"products", productTable},
		{"admissions", admissionTable},
		{"payments", paymentTable},
		{"payments_active_source_uniq", paymentActiveIndex},
		{"payment_channels", paymentChannelTable},
		{"online_classes", onlineClassTable},
		{"sequence_counters", sequenceTable},
	}

	for _, t := range tables {
		if _, err := DB.Exec(t.stmt); err != nil {
			return fmt.Errorf("error creating %s: %w", t.name, err)
		}
	}

	seedPaymentChannels()

	return nil
}

// seedPaymentChannels inserts the default collection numbers if none exist
func seedPaymentChannels() {
	seeds := []struct {
		method, number, accountType string
	}{
		{"bKash", "01700000000", "Personal"},
		{"Nagad", "01800000000", "Personal"},
		{"Rocket", "01900000000", "Agent"},
	}

	for _, s := range seeds {
		_, err := DB.Exec(`INSERT INTO payment_channels (method_name, number, account_type)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM payment_channels WHERE method_name = $1)`,
			s.method, s.number, s.accountType)
		if err != nil {
			log.Println("Warning: Error seeding payment channel:", err)
		}
	}
}
