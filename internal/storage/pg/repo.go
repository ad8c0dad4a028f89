package pg

import (
	"context"
	"encoding/hex"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/iec101-gateway/internal/journal"
)

// Repository 帧日志持久化（表 frame_log）
type Repository struct {
	Pool *pgxpool.Pool
}

func (r *Repository) Name() string { return "postgres" }

// Write 实现 journal.Sink
func (r *Repository) Write(ctx context.Context, rec journal.Record) error {
	return r.InsertFrameLog(ctx, rec)
}

// InsertFrameLog 插入一条帧日志；原始字节以 bytea 保存
func (r *Repository) InsertFrameLog(ctx context.Context, rec journal.Record) error {
	raw, err := hex.DecodeString(rec.Raw)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(rec.Payload)
	if err != nil {
		return err
	}
	const q = `INSERT INTO frame_log (id, conn_id, remote, direction, kind, status, control, prm, function, address, payload, raw, created_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = r.Pool.Exec(ctx, q,
		rec.ID, int64(rec.ConnID), rec.Remote, string(rec.Direction), rec.Kind, rec.Status,
		int16(rec.Control), rec.PRM, rec.Function, int32(rec.Address), payload, raw, rec.At)
	return err
}

// Recent 实现 journal.Reader，新的在前
func (r *Repository) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, conn_id, remote, direction, kind, status, control, prm, function, address, payload, raw, created_at
               FROM frame_log ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRecord)
}

func scanRecord(row pgx.CollectableRow) (journal.Record, error) {
	var (
		rec       journal.Record
		connID    int64
		direction string
		control   int16
		address   int32
		payload   []byte
		raw       []byte
	)
	err := row.Scan(&rec.ID, &connID, &rec.Remote, &direction, &rec.Kind, &rec.Status,
		&control, &rec.PRM, &rec.Function, &address, &payload, &raw, &rec.At)
	if err != nil {
		return rec, err
	}
	rec.ConnID = uint64(connID)
	rec.Direction = journal.Direction(direction)
	rec.Control = uint8(control)
	rec.Address = uint16(address)
	rec.Payload = hex.EncodeToString(payload)
	rec.Raw = hex.EncodeToString(raw)
	return rec, nil
}
