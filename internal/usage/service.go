package usage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Service es el agregador de uso. No guarda estado entre llamadas.
type Service struct {
	peers   PeerAssignments
	clients repository.ClientRepository

	// now es inyectable para tests.
	now func() time.Time
}

// New crea el Service.
func New(peers PeerAssignments, clients repository.ClientRepository) *Service {
	return &Service{peers: peers, clients: clients, now: time.Now}
}

// Summary arma el resumen del cliente para un día: totales de vida útil
// sumados sobre todos los peers asignados más los contadores de ese día.
// Un cliente sin peers asignados produce sumas en cero, no un error.
func (s *Service) Summary(ctx context.Context, clientID string, day time.Time) (*SummaryReport, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.now()
	}
	day = truncateDay(day)

	peers, err := s.peers.GetAssignedPeers(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("assigned peers: %w", err)
	}
	var total Sums
	for _, p := range peers {
		total.TotalGB += p.Data
		total.SentGB += p.SentData
		total.ReceiveGB += p.ReceivedData
	}

	dailyByPeer, disabled, err := s.peers.GetAssignedPeersDailyUsage(ctx, clientID, day)
	if err != nil {
		return nil, fmt.Errorf("daily usage: %w", err)
	}
	daily := DaySums{Date: day.Format(dateLayout)}
	for _, u := range dailyByPeer {
		daily.TotalGB += u.Total
		daily.SentGB += u.Sent
		daily.ReceiveGB += u.Receive
	}
	if disabled == nil {
		disabled = []string{}
	}

	return &SummaryReport{
		ClientID:                       clientID,
		GeneratedAt:                    s.now().Format(timestampLayout),
		PeersCount:                     len(peers),
		Total:                          total,
		Daily:                          daily,
		TrackingDisabledConfigurations: disabled,
	}, nil
}

// Range arma el reporte multi-día del cliente. La secuencia diaria tiene
// largo exacto (end-start).days + 1, sembrada en cero; los contadores por
// día de cada peer se pliegan en el slot de su fecha calendario. Entradas
// fuera del rango se descartan en vez de atribuirse al día equivocado.
// end == start produce un reporte de un solo día.
func (s *Service) Range(ctx context.Context, clientID string, start, end time.Time) (*RangeReport, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end before start", repository.ErrValidation)
	}

	peers, err := s.peers.GetAssignedPeers(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("assigned peers: %w", err)
	}
	meta := make(map[string]Peer, len(peers))
	for _, p := range peers {
		meta[p.ID] = p
	}

	usageByPeer, disabled, err := s.peers.GetAssignedPeersUsageRange(ctx, clientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("usage range: %w", err)
	}
	if disabled == nil {
		disabled = []string{}
	}

	days := daysBetween(start, end) + 1
	daily := make([]DaySums, days)
	for i := range daily {
		daily[i].Date = start.AddDate(0, 0, i).Format(dateLayout)
	}

	var total Sums
	peerReports := make([]PeerReport, 0, len(usageByPeer))
	for pid, u := range usageByPeer {
		m := meta[pid]
		peerReports = append(peerReports, PeerReport{
			ID:                pid,
			Name:              m.Name,
			ConfigurationName: m.ConfigurationName,
			TotalGB:           u.Total,
			SentGB:            u.Sent,
			ReceiveGB:         u.Receive,
		})
		total.TotalGB += u.Total
		total.SentGB += u.Sent
		total.ReceiveGB += u.Receive

		for _, du := range u.Daily {
			idx := daysBetween(start, truncateDay(du.Date))
			if idx < 0 || idx >= days {
				continue
			}
			daily[idx].TotalGB += du.Total
			daily[idx].SentGB += du.Sent
			daily[idx].ReceiveGB += du.Receive
		}
	}
	sort.Slice(peerReports, func(i, j int) bool { return peerReports[i].ID < peerReports[j].ID })

	return &RangeReport{
		ClientID:    clientID,
		GeneratedAt: s.now().Format(timestampLayout),
		Range: DateRange{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		},
		PeersCount:                     len(peers),
		Total:                          total,
		Daily:                          daily,
		Peers:                          peerReports,
		TrackingDisabledConfigurations: disabled,
	}, nil
}

// truncateDay normaliza a medianoche UTC; la aritmética de días del rango se
// hace siempre sobre fechas normalizadas.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
