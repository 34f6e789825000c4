// Package metrics expone contadores Prometheus de los flujos de autenticación.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SignIns cuenta los intentos de sign-in por método y resultado.
	SignIns *prometheus.CounterVec

	// SignUps cuenta los sign-ups por método y resultado.
	SignUps *prometheus.CounterVec

	// ChallengesIssued cuenta los challenge tokens TOTP emitidos.
	ChallengesIssued prometheus.Counter

	// ResetTokensIssued cuenta los reset tokens generados.
	ResetTokensIssued prometheus.Counter
)

// Register inicializa y registra las métricas. Idempotente.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SignIns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergate_sign_ins_total",
			Help: "Intentos de sign-in por método y resultado",
		}, []string{"method", "result"})

		SignUps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peergate_sign_ups_total",
			Help: "Sign-ups por método y resultado",
		}, []string{"method", "result"})

		ChallengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergate_totp_challenges_issued_total",
			Help: "Challenge tokens TOTP emitidos",
		})

		ResetTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peergate_reset_tokens_issued_total",
			Help: "Password reset tokens generados",
		})

		reg.MustRegister(SignIns, SignUps, ChallengesIssued, ResetTokensIssued)
	})
}

// inc es tolerante a que Register no haya corrido (tests).
func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// IncSignIn registra un intento de sign-in.
func IncSignIn(method, result string) {
	if SignIns != nil {
		SignIns.WithLabelValues(method, result).Inc()
	}
}

// IncSignUp registra un sign-up.
func IncSignUp(method, result string) {
	if SignUps != nil {
		SignUps.WithLabelValues(method, result).Inc()
	}
}

// IncChallengeIssued registra un challenge emitido.
func IncChallengeIssued() { inc(ChallengesIssued) }

// IncResetTokenIssued registra un reset token emitido.
func IncResetTokenIssued() { inc(ResetTokensIssued) }
