package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careman/internal/model"
)

// PostgresActivityLogRepo はPostgreSQLを使用した活動記録リポジトリ。
// tasksカラムはJSON配列文字列として格納し、本リポジトリ内でのみエンコード/デコードする。
type PostgresActivityLogRepo struct {
	db *sql.DB
}

// NewPostgresActivityLogRepo はPostgresActivityLogRepoを生成する。
func NewPostgresActivityLogRepo(db *sql.DB) *PostgresActivityLogRepo {
	return &PostgresActivityLogRepo{db: db}
}

// FindByID は指定IDの活動記録を取得する。見つからない場合はnilを返す。
func (r *PostgresActivityLogRepo) FindByID(ctx context.Context, id string) (*model.ActivityLog, error) {
	log := &model.ActivityLog{}
	var tasks string
	var reason sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, appointment_id, status, tasks, reason, created_at, updated_at
		 FROM activity_logs WHERE id = $1`,
		id,
	).Scan(&log.ID, &log.AppointmentID, &log.Status, &tasks, &reason, &log.CreatedAt, &log.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("活動記録の取得に失敗しました: %w", err)
	}

	decoded, err := decodeStringSlice(tasks)
	if err != nil {
		return nil, err
	}
	log.Tasks = decoded
	log.Reason = nullStringValue(reason)

	return log, nil
}

// Create は活動記録を作成する。
func (r *PostgresActivityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	tasks, err := encodeStringSlice(log.Tasks)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, appointment_id, status, tasks, reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.AppointmentID, log.Status, tasks, nullString(log.Reason),
		log.CreatedAt, log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("活動記録の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は活動記録の状態と差し戻し理由を更新する。
func (r *PostgresActivityLogRepo) UpdateStatus(ctx context.Context, id string, status model.ActivityLogStatus, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activity_logs SET status = $2, reason = $3, updated_at = now() WHERE id = $1`,
		id, status, nullString(reason),
	)
	if err != nil {
		return fmt.Errorf("活動記録状態の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewActivityLogNotFoundError(id)
	}
	return nil
}

// ListByAppointmentID は予約に紐付く活動記録を作成日時昇順で返す。
func (r *PostgresActivityLogRepo) ListByAppointmentID(ctx context.Context, appointmentID string) ([]*model.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, appointment_id, status, tasks, reason, created_at, updated_at
		 FROM activity_logs WHERE appointment_id = $1 ORDER BY created_at`,
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("活動記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var logs []*model.ActivityLog
	for rows.Next() {
		log := &model.ActivityLog{}
		var tasks string
		var reason sql.NullString

		if err := rows.Scan(&log.ID, &log.AppointmentID, &log.Status, &tasks, &reason, &log.CreatedAt, &log.UpdatedAt); err != nil {
			return nil, fmt.Errorf("活動記録行の読み取りに失敗しました: %w", err)
		}

		decoded, err := decodeStringSlice(tasks)
		if err != nil {
			return nil, err
		}
		log.Tasks = decoded
		log.Reason = nullStringValue(reason)

		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("活動記録一覧の走査に失敗しました: %w", err)
	}
	return logs, nil
}

// CountByStatuses は予約に紐付く活動記録のうち指定状態のものを数える。
// 決済エンジンが精算対象（approved）とレビュー済み（approved+rejected）の
// 件数判定に使用する。
func (r *PostgresActivityLogRepo) CountByStatuses(ctx context.Context, appointmentID string, statuses ...model.ActivityLogStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM activity_logs
		 WHERE appointment_id = $1 AND status = ANY($2)`,
		appointmentID, pq.Array(values),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("活動記録件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ActivityLogRepository = (*PostgresActivityLogRepo)(nil)
