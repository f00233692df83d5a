//go:build ignore
// +build ignore

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Seeds a demo organization with a handful of members and one draft
// campaign, creating the schema first if it is missing. Intended for
// local development against a fresh database:
//
//	DATABASE_URL=postgres://... go run scripts/seed_demo_data.go

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    contact_email TEXT
);

CREATE TABLE IF NOT EXISTS members (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL REFERENCES organizations(id),
    email           TEXT,
    first_name      TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'active',
    category        TEXT
);

CREATE TABLE IF NOT EXISTS campaigns (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL REFERENCES organizations(id),
    subject         TEXT NOT NULL,
    body            TEXT NOT NULL,
    reply_to        TEXT,
    filter          JSONB,
    status          TEXT NOT NULL DEFAULT 'draft',
    recipient_count INT NOT NULL DEFAULT 0,
    open_count      INT NOT NULL DEFAULT 0,
    click_count     INT NOT NULL DEFAULT 0,
    sent_at         TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS campaign_recipients (
    id          TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL REFERENCES campaigns(id),
    member_id   TEXT NOT NULL REFERENCES members(id),
    email       TEXT NOT NULL,
    token       TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'queued',
    last_error  TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (campaign_id, member_id),
    UNIQUE (token)
);

CREATE TABLE IF NOT EXISTS tracking_events (
    id              TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    campaign_id     TEXT NOT NULL REFERENCES campaigns(id),
    recipient_id    TEXT NOT NULL REFERENCES campaign_recipients(id),
    member_id       TEXT NOT NULL,
    event_type      TEXT NOT NULL,
    link_url        TEXT,
    ip_address      TEXT,
    user_agent      TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_members_org ON members(organization_id);
CREATE INDEX IF NOT EXISTS idx_recipients_campaign ON campaign_recipients(campaign_id);
CREATE INDEX IF NOT EXISTS idx_events_campaign ON tracking_events(campaign_id);
`

const demoBody = `<html><body>
<p>Hei {{ first_name }},</p>
<p>Velkommen til sesongstart! Les mer på
<a href="https://sportsklubben.example.no/sesongstart">klubbsiden</a>.</p>
<p>Hilsen styret</p>
</body></html>`

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	orgID := uuid.New().String()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, contact_email)
		VALUES ($1, 'Sportsklubben Demo', 'post@sportsklubben.example.no')
	`, orgID); err != nil {
		log.Fatalf("seed organization: %v", err)
	}

	members := []struct {
		email, firstName, status, category string
	}{
		{"anne@example.no", "Anne", "active", "senior"},
		{"bjorn@example.no", "Bjørn", "active", "junior"},
		{"cecilie@example.no", "Cecilie", "active", "senior"},
		{"david@example.no", "David", "inactive", "senior"},
		{"", "Erik", "active", "junior"}, // no email, excluded from audiences
	}
	for _, m := range members {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO members (id, organization_id, email, first_name, status, category)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New().String(), orgID, m.email, m.firstName, m.status, m.category); err != nil {
			log.Fatalf("seed member %s: %v", m.firstName, err)
		}
	}

	campaignID := uuid.New().String()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO campaigns (id, organization_id, subject, body, status)
		VALUES ($1, $2, 'Sesongstart 2026', $3, 'draft')
	`, campaignID, orgID, demoBody); err != nil {
		log.Fatalf("seed campaign: %v", err)
	}

	fmt.Printf("seeded organization %s with campaign %s\n", orgID, campaignID)
	fmt.Printf("send it with: go run ./cmd/sender -org %s -campaign %s\n", orgID, campaignID)
}
