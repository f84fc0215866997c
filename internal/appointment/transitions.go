// Package appointment は予約管理のドメインロジックを提供する。
package appointment

import "github.com/hitoshi/careman/internal/model"

// allowedTransitions は予約ライフサイクルの有効な遷移辺。
// pending → rejected|accepted → virtual → signed_caregiver → signed_seeker
// → active ⇄ paused、active → ongoing → completed → finished。
// 定期予約は ongoing → active で次回実施に備えてサイクルを戻す。
var allowedTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentStatusRejected,
		model.AppointmentStatusAccepted,
	},
	model.AppointmentStatusAccepted: {
		model.AppointmentStatusVirtual,
	},
	model.AppointmentStatusVirtual: {
		model.AppointmentStatusSignedCaregiver,
	},
	model.AppointmentStatusSignedCaregiver: {
		model.AppointmentStatusSignedSeeker,
	},
	model.AppointmentStatusSignedSeeker: {
		model.AppointmentStatusActive,
	},
	model.AppointmentStatusActive: {
		model.AppointmentStatusOngoing,
		model.AppointmentStatusPaused,
	},
	model.AppointmentStatusPaused: {
		model.AppointmentStatusActive,
	},
	model.AppointmentStatusOngoing: {
		model.AppointmentStatusActive,
		model.AppointmentStatusCompleted,
	},
	model.AppointmentStatusCompleted: {
		model.AppointmentStatusFinished,
	},
}

// CanTransition はfromからtoへの遷移がライフサイクルグラフ上で有効かを返す。
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
