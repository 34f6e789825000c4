package usage

// Sums agrupa los tres contadores de un reporte, en GB.
type Sums struct {
	TotalGB   float64 `json:"total_gb"`
	SentGB    float64 `json:"sent_gb"`
	ReceiveGB float64 `json:"receive_gb"`
}

// DaySums son los contadores agregados de un día del reporte.
type DaySums struct {
	Date      string  `json:"date"`
	TotalGB   float64 `json:"total_gb"`
	SentGB    float64 `json:"sent_gb"`
	ReceiveGB float64 `json:"receive_gb"`
}

// PeerReport es la fila por-peer de un reporte de rango.
type PeerReport struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ConfigurationName string  `json:"configuration_name"`
	TotalGB           float64 `json:"total_gb"`
	SentGB            float64 `json:"sent_gb"`
	ReceiveGB         float64 `json:"receive_gb"`
}

// SummaryReport es el resumen de uso de un cliente: vida útil completa más
// el detalle de un día.
type SummaryReport struct {
	ClientID    string `json:"client_id"`
	GeneratedAt string `json:"generated_at"`
	PeersCount  int    `json:"peers_count"`
	Total       Sums   `json:"total"`
	Daily       DaySums `json:"daily"`

	// Configuraciones asignadas con tracking de uso deshabilitado,
	// directo del colaborador.
	TrackingDisabledConfigurations []string `json:"tracking_disabled_configurations"`
}

// DateRange delimita un reporte de rango.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RangeReport es el reporte multi-día de un cliente.
type RangeReport struct {
	ClientID    string       `json:"client_id"`
	GeneratedAt string       `json:"generated_at"`
	Range       DateRange    `json:"range"`
	PeersCount  int          `json:"peers_count"`
	Total       Sums         `json:"total"`
	Daily       []DaySums    `json:"daily"`
	Peers       []PeerReport `json:"peers"`

	TrackingDisabledConfigurations []string `json:"tracking_disabled_configurations"`
}
