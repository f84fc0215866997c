package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresAppointmentRepo はPostgreSQLを使用した予約リポジトリ。
// weekdaysカラムはJSON配列文字列として格納し、本リポジトリ内でのみエンコード/デコードする。
type PostgresAppointmentRepo struct {
	db *sql.DB
}

// NewPostgresAppointmentRepo はPostgresAppointmentRepoを生成する。
func NewPostgresAppointmentRepo(db *sql.DB) *PostgresAppointmentRepo {
	return &PostgresAppointmentRepo{db: db}
}

const appointmentColumns = `id, user_id, caregiver_info_id, name, type, status,
	        start_date, end_date, weekdays, timezone, payment, created_at, updated_at`

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresAppointmentRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`,
		id,
	)

	appointment, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	return appointment, nil
}

// Create は予約を作成する。
func (r *PostgresAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	weekdays, err := encodeStringSlice(appointment.Weekdays)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO appointments (id, user_id, caregiver_info_id, name, type, status,
		                           start_date, end_date, weekdays, timezone, payment,
		                           created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		appointment.ID, appointment.UserID, appointment.CaregiverInfoID,
		appointment.Name, appointment.Type, appointment.Status,
		appointment.StartDate, appointment.EndDate, weekdays, appointment.Timezone,
		appointment.Payment, appointment.CreatedAt, appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は予約のスケジュール関連フィールドを更新する。
func (r *PostgresAppointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	weekdays, err := encodeStringSlice(appointment.Weekdays)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE appointments SET
		    name = $2, start_date = $3, end_date = $4, weekdays = $5,
		    timezone = $6, updated_at = now()
		 WHERE id = $1`,
		appointment.ID, appointment.Name, appointment.StartDate, appointment.EndDate,
		weekdays, appointment.Timezone,
	)
	if err != nil {
		return fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は予約の状態のみを更新する。
func (r *PostgresAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewAppointmentNotFoundError(id)
	}
	return nil
}

// ListByUserID は利用者の予約一覧を作成日時降順で返す。
func (r *PostgresAppointmentRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// ListActionable は終端状態以外の全予約を返す。
// ライフサイクルスケジューラが毎ティックのスキャン対象とする。
func (r *PostgresAppointmentRepo) ListActionable(ctx context.Context) ([]*model.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 WHERE status NOT IN ($1, $2)
		 ORDER BY created_at`,
		model.AppointmentStatusRejected, model.AppointmentStatusFinished,
	)
	if err != nil {
		return nil, fmt.Errorf("処理対象予約の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAppointment は1行を予約モデルに変換する。weekdaysはここでデコードされる。
func scanAppointment(row rowScanner) (*model.Appointment, error) {
	appointment := &model.Appointment{}
	var weekdays string

	err := row.Scan(
		&appointment.ID, &appointment.UserID, &appointment.CaregiverInfoID,
		&appointment.Name, &appointment.Type, &appointment.Status,
		&appointment.StartDate, &appointment.EndDate, &weekdays,
		&appointment.Timezone, &appointment.Payment,
		&appointment.CreatedAt, &appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeStringSlice(weekdays)
	if err != nil {
		return nil, err
	}
	appointment.Weekdays = decoded

	return appointment, nil
}

func collectAppointments(rows *sql.Rows) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}
	return appointments, nil
}

// compile-time interface check
var _ AppointmentRepository = (*PostgresAppointmentRepo)(nil)
