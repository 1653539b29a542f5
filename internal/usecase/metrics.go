package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	usersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of successful registrations",
		},
	)

	validationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_validation_rejections_total",
			Help: "Requests rejected by a business rule, by operation and rule kind",
		},
		[]string{"operation", "kind"},
	)

	welcomeNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welcome_notifications_total",
			Help: "Welcome notifications attempted, by outcome",
		},
		[]string{"status"},
	)
)
