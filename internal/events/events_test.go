package events

import (
	"context"
	"encoding/json"
	"testing"

	"stream-market/internal/amm"
	"stream-market/internal/database"
	"stream-market/internal/models"
)

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)

	recorded := []Event{
		StreamInitialized{StreamID: 1, Authority: "auth", InitialLiquidity: 1000, InitialPrice: 1_000_000_000},
		SharesPurchased{StreamID: 1, User: "alice", TeamID: amm.TeamA, SolSpent: 100, SharesReceived: 83},
		StreamInitialized{StreamID: 2, Authority: "auth", InitialLiquidity: 2000},
	}
	for _, evt := range recorded {
		if _, err := Record(ctx, db, evt); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := List(ctx, db, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}

	inits, err := List(ctx, db, Filter{Name: NameStreamInitialized})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(inits) != 2 {
		t.Errorf("got %d init events, want 2", len(inits))
	}

	stream1, err := List(ctx, db, Filter{StreamID: 1, Name: NameSharesPurchased})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stream1) != 1 {
		t.Fatalf("got %d purchase events, want 1", len(stream1))
	}

	var payload SharesPurchased
	if err := json.Unmarshal([]byte(stream1[0].Data), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.SharesReceived != 83 || payload.TeamID != amm.TeamA {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSubject(t *testing.T) {
	row := &models.EventLog{StreamID: 9, EventName: NameWinningsClaimed}
	if got := Subject(row); got != "stream.market.events.WinningsClaimed.9" {
		t.Errorf("got %s", got)
	}
}
