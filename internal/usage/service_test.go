package usage

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
	"github.com/dropDatabas3/peergate/internal/store/mem"
)

// fakeAssignments implementa PeerAssignments con datos fijos.
type fakeAssignments struct {
	peers    []Peer
	daily    map[string]DayUsage
	ranged   map[string]PeerRangeUsage
	disabled []string
}

func (f *fakeAssignments) GetAssignedPeers(ctx context.Context, clientID string) ([]Peer, error) {
	return f.peers, nil
}

func (f *fakeAssignments) GetAssignedPeersDailyUsage(ctx context.Context, clientID string, day time.Time) (map[string]DayUsage, []string, error) {
	return f.daily, f.disabled, nil
}

func (f *fakeAssignments) GetAssignedPeersUsageRange(ctx context.Context, clientID string, start, end time.Time) (map[string]PeerRangeUsage, []string, error) {
	return f.ranged, f.disabled, nil
}

func newClient(t *testing.T) (repository.ClientRepository, string) {
	t.Helper()
	s := mem.New()
	id, err := s.CreateLocal(context.Background(), repository.CreateLocalInput{
		Email:        "a@b.com",
		PasswordHash: "h",
		TotpSecret:   "s",
	})
	if err != nil {
		t.Fatalf("CreateLocal err: %v", err)
	}
	return s, id
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	clients, id := newClient(t)

	fa := &fakeAssignments{
		peers: []Peer{
			{ID: "p1", Name: "laptop", ConfigurationName: "wg0", Data: 10, SentData: 4, ReceivedData: 6},
			{ID: "p2", Name: "phone", ConfigurationName: "wg0", Data: 2.5, SentData: 1, ReceivedData: 1.5},
		},
		daily: map[string]DayUsage{
			"p1": {Total: 1, Sent: 0.25, Receive: 0.75},
			"p2": {Total: 0.5, Sent: 0.25, Receive: 0.25},
		},
		disabled: []string{"wg9"},
	}
	svc := New(fa, clients)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC) }

	rep, err := svc.Summary(ctx, id, day(2026, 3, 10))
	if err != nil {
		t.Fatalf("Summary err: %v", err)
	}
	if rep.PeersCount != 2 {
		t.Fatalf("peers count: got %d want 2", rep.PeersCount)
	}
	if rep.Total.TotalGB != 12.5 || rep.Total.SentGB != 5 || rep.Total.ReceiveGB != 7.5 {
		t.Fatalf("totals: %+v", rep.Total)
	}
	if rep.Daily.Date != "2026-03-10" {
		t.Fatalf("daily date: %q", rep.Daily.Date)
	}
	if rep.Daily.TotalGB != 1.5 || rep.Daily.SentGB != 0.5 || rep.Daily.ReceiveGB != 1 {
		t.Fatalf("daily sums: %+v", rep.Daily)
	}
	if rep.GeneratedAt != "2026-03-10 15:04:05" {
		t.Fatalf("generated_at: %q", rep.GeneratedAt)
	}
	if len(rep.TrackingDisabledConfigurations) != 1 || rep.TrackingDisabledConfigurations[0] != "wg9" {
		t.Fatalf("disabled: %v", rep.TrackingDisabledConfigurations)
	}
}

func TestSummary_NoPeers(t *testing.T) {
	ctx := context.Background()
	clients, id := newClient(t)

	svc := New(&fakeAssignments{}, clients)
	rep, err := svc.Summary(ctx, id, time.Time{})
	if err != nil {
		t.Fatalf("Summary err: %v", err)
	}
	if rep.PeersCount != 0 {
		t.Fatalf("peers count: got %d want 0", rep.PeersCount)
	}
	if rep.Total != (Sums{}) {
		t.Fatalf("totals not zero: %+v", rep.Total)
	}
	if rep.TrackingDisabledConfigurations == nil {
		t.Fatalf("disabled list is nil, want empty slice")
	}
	// Día cero: se usa la fecha actual.
	if rep.Daily.Date != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("daily date: %q", rep.Daily.Date)
	}
}

func TestSummary_UnknownClient(t *testing.T) {
	ctx := context.Background()
	clients, _ := newClient(t)

	svc := New(&fakeAssignments{}, clients)
	if _, err := svc.Summary(ctx, "no-such-client", time.Time{}); !repository.IsNotFound(err) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestRange(t *testing.T) {
	ctx := context.Background()
	clients, id := newClient(t)

	start, end := day(2026, 3, 1), day(2026, 3, 3)
	fa := &fakeAssignments{
		peers: []Peer{
			{ID: "p1", Name: "laptop", ConfigurationName: "wg0"},
			{ID: "p2", Name: "phone", ConfigurationName: "wg0"},
		},
		ranged: map[string]PeerRangeUsage{
			"p2": {Total: 3, Sent: 1, Receive: 2, Daily: []DayUsage{
				{Date: day(2026, 3, 1), Total: 1, Sent: 0.5, Receive: 0.5},
				{Date: day(2026, 3, 3), Total: 2, Sent: 0.5, Receive: 1.5},
			}},
			"p1": {Total: 4, Sent: 2, Receive: 2, Daily: []DayUsage{
				{Date: day(2026, 3, 2), Total: 4, Sent: 2, Receive: 2},
			}},
		},
	}
	svc := New(fa, clients)

	rep, err := svc.Range(ctx, id, start, end)
	if err != nil {
		t.Fatalf("Range err: %v", err)
	}
	if rep.Range.Start != "2026-03-01" || rep.Range.End != "2026-03-03" {
		t.Fatalf("range: %+v", rep.Range)
	}
	if len(rep.Daily) != 3 {
		t.Fatalf("daily length: got %d want 3", len(rep.Daily))
	}
	// Cada día pliega las entradas de su fecha calendario.
	wantDaily := []DaySums{
		{Date: "2026-03-01", TotalGB: 1, SentGB: 0.5, ReceiveGB: 0.5},
		{Date: "2026-03-02", TotalGB: 4, SentGB: 2, ReceiveGB: 2},
		{Date: "2026-03-03", TotalGB: 2, SentGB: 0.5, ReceiveGB: 1.5},
	}
	for i, want := range wantDaily {
		if rep.Daily[i] != want {
			t.Fatalf("daily[%d]: got %+v want %+v", i, rep.Daily[i], want)
		}
	}
	if rep.Total.TotalGB != 7 || rep.Total.SentGB != 3 || rep.Total.ReceiveGB != 4 {
		t.Fatalf("totals: %+v", rep.Total)
	}
	// Filas por peer ordenadas por ID, con metadata resuelta.
	if len(rep.Peers) != 2 || rep.Peers[0].ID != "p1" || rep.Peers[1].ID != "p2" {
		t.Fatalf("peer rows: %+v", rep.Peers)
	}
	if rep.Peers[0].Name != "laptop" || rep.Peers[0].ConfigurationName != "wg0" {
		t.Fatalf("peer metadata: %+v", rep.Peers[0])
	}
}

func TestRange_DropsOutOfRangeEntries(t *testing.T) {
	ctx := context.Background()
	clients, id := newClient(t)

	start, end := day(2026, 3, 1), day(2026, 3, 2)
	fa := &fakeAssignments{
		peers: []Peer{{ID: "p1"}},
		ranged: map[string]PeerRangeUsage{
			"p1": {Total: 9, Sent: 5, Receive: 4, Daily: []DayUsage{
				{Date: day(2026, 2, 28), Total: 3}, // antes del rango
				{Date: day(2026, 3, 1), Total: 2},
				{Date: day(2026, 3, 5), Total: 4}, // después del rango
			}},
		},
	}
	svc := New(fa, clients)

	rep, err := svc.Range(ctx, id, start, end)
	if err != nil {
		t.Fatalf("Range err: %v", err)
	}
	if len(rep.Daily) != 2 {
		t.Fatalf("daily length: got %d want 2", len(rep.Daily))
	}
	if rep.Daily[0].TotalGB != 2 || rep.Daily[1].TotalGB != 0 {
		t.Fatalf("daily sums: %+v", rep.Daily)
	}
	// El total por peer viene del colaborador, no del plegado diario.
	if rep.Total.TotalGB != 9 {
		t.Fatalf("total: %+v", rep.Total)
	}
}

func TestRange_SingleDayAndInvalid(t *testing.T) {
	ctx := context.Background()
	clients, id := newClient(t)
	svc := New(&fakeAssignments{}, clients)

	d := day(2026, 3, 1)
	rep, err := svc.Range(ctx, id, d, d)
	if err != nil {
		t.Fatalf("Range err: %v", err)
	}
	if len(rep.Daily) != 1 || rep.Daily[0].Date != "2026-03-01" {
		t.Fatalf("single-day range: %+v", rep.Daily)
	}

	// Timestamps intradía del mismo día siguen siendo un rango de un día.
	rep, err = svc.Range(ctx, id, d.Add(23*time.Hour), d.Add(time.Hour))
	if err != nil {
		t.Fatalf("intraday Range err: %v", err)
	}
	if len(rep.Daily) != 1 {
		t.Fatalf("intraday range length: %d", len(rep.Daily))
	}

	if _, err := svc.Range(ctx, id, d, d.AddDate(0, 0, -1)); !repository.IsValidation(err) {
		t.Fatalf("inverted range: got %v want ErrValidation", err)
	}
}
