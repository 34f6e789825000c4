// Package usage calcula reportes de consumo sobre los peers asignados a un
// cliente. Los contadores crudos son del colaborador de peer assignment; acá
// solo se leen y se pliegan en reportes.
package usage

import (
	"context"
	"time"
)

// Peer es la vista de un peer asignado, con sus contadores acumulados en GB.
type Peer struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ConfigurationName string  `json:"configuration_name"`
	Data              float64 `json:"data"`
	SentData          float64 `json:"sent_data"`
	ReceivedData      float64 `json:"received_data"`
}

// DayUsage son los contadores de un peer para un día calendario concreto.
// Date viene del colaborador: el plegado del rango es por fecha, no por
// posición, así una lista rala o desalineada no atribuye tráfico al día
// equivocado.
type DayUsage struct {
	Date    time.Time
	Total   float64
	Sent    float64
	Receive float64
}

// PeerRangeUsage son los contadores de un peer sobre un rango de días.
type PeerRangeUsage struct {
	Total   float64
	Sent    float64
	Receive float64
	Daily   []DayUsage
}

// PeerAssignments es el colaborador externo que asigna peers a clientes y
// lleva sus contadores de tráfico. El segundo retorno de las consultas de
// uso es la lista de configuraciones con tracking deshabilitado, que se
// pasa al reporte sin tocar.
type PeerAssignments interface {
	GetAssignedPeers(ctx context.Context, clientID string) ([]Peer, error)
	GetAssignedPeersDailyUsage(ctx context.Context, clientID string, day time.Time) (map[string]DayUsage, []string, error)
	GetAssignedPeersUsageRange(ctx context.Context, clientID string, start, end time.Time) (map[string]PeerRangeUsage, []string, error)
}
