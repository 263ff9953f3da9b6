//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Fixed IDs for the seeded catalog so tests can reference rows directly.
var (
	VehicleSedanID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	VehicleVanID     = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	VehicleRetiredID = uuid.MustParse("33333333-3333-3333-3333-333333333333")

	AddOnGPSID          = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	AddOnChildSeatID    = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	AddOnDiscontinuedID = uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")
)

func CreateTestVehicle(t *testing.T, db DBLike, name string, dailyRateCents int64, bookable bool) uuid.UUID {
	t.Helper()

	vehicleID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO vehicles (id, name, daily_rate_cents, is_bookable) VALUES ($1, $2, $3, $4)",
		vehicleID, name, dailyRateCents, bookable)
	require.NoError(t, err)

	return vehicleID
}

func CreateTestAddOn(t *testing.T, db DBLike, name string, dailyRateCents int64) uuid.UUID {
	t.Helper()

	addOnID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO add_ons (id, name, daily_rate_cents, is_bookable) VALUES ($1, $2, $3, true)",
		addOnID, name, dailyRateCents)
	require.NoError(t, err)

	return addOnID
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO vehicles (id, name, daily_rate_cents, is_bookable) VALUES
		    ($1, 'Compact Sedan', 4500, true),
		    ($2, 'Cargo Van', 8000, true),
		    ($3, 'Retired Coupe', 3000, false)
		ON CONFLICT (id) DO NOTHING;
	`, VehicleSedanID, VehicleVanID, VehicleRetiredID)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO add_ons (id, name, daily_rate_cents, is_bookable) VALUES
		    ($1, 'GPS Navigation', 1000, true),
		    ($2, 'Child Seat', 750, true),
		    ($3, 'Discontinued Rack', 500, false)
		ON CONFLICT (id) DO NOTHING;
	`, AddOnGPSID, AddOnChildSeatID, AddOnDiscontinuedID)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
