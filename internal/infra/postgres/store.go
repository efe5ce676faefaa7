// Package postgres is the self-hosted storage mode: quiz groups and
// submitted results live in local tables instead of a remote REST
// backend. In this mode the bearer token carries the student ID
// directly; token verification belongs to the deployment's proxy.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"greensys-quiz-service/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FetchGroup(ctx context.Context, _ string, groupID string) (domain.QuizPayload, error) {
	var group domain.QuizGroup
	err := s.pool.QueryRow(ctx,
		`SELECT id, judul, durasi, kelas_id, modul_id FROM group_soal WHERE id=$1`, groupID,
	).Scan(&group.ID, &group.Title, &group.DurationMinutes, &group.KelasID, &group.ModulID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizPayload{}, fmt.Errorf("%w: %s", domain.ErrNotFound, groupID)
	}
	if err != nil {
		return domain.QuizPayload{}, fmt.Errorf("%w: load group: %v", domain.ErrServer, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, soal, option_a, option_b, option_c, option_d, option_e, jawaban
		 FROM soal WHERE group_soal_id=$1 ORDER BY urutan`, groupID)
	if err != nil {
		return domain.QuizPayload{}, fmt.Errorf("%w: load questions: %v", domain.ErrServer, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.OptionE, &q.Answer); err != nil {
			return domain.QuizPayload{}, fmt.Errorf("%w: scan question: %v", domain.ErrServer, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.QuizPayload{}, fmt.Errorf("%w: read questions: %v", domain.ErrServer, err)
	}

	return domain.QuizPayload{Group: group, Questions: questions}, nil
}

func (s *Store) FetchProfile(ctx context.Context, token string) (domain.Student, error) {
	var student domain.Student
	err := s.pool.QueryRow(ctx, `SELECT id, nama FROM siswa WHERE id=$1`, token).
		Scan(&student.ID, &student.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Student{}, fmt.Errorf("%w: unknown student", domain.ErrAuth)
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("%w: load profile: %v", domain.ErrServer, err)
	}
	return student, nil
}

func (s *Store) SubmitResult(ctx context.Context, _ string, sub domain.Submission) (domain.SubmitResponse, error) {
	detail, err := json.Marshal(sub.Details)
	if err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("%w: encode details: %v", domain.ErrValidation, err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO nilai (id, siswa_id, group_soal_id, skor, jumlah_jawaban_benar, jumlah_soal, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, sub.SiswaID, sub.GroupSoalID, sub.Skor, sub.CorrectCount, len(sub.Details), detail, time.Now().UTC())
	if err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("%w: insert nilai: %v", domain.ErrServer, err)
	}
	return domain.SubmitResponse{Success: true, NilaiID: id}, nil
}

func (s *Store) FetchResult(ctx context.Context, _ string, nilaiID string) (domain.StoredResult, error) {
	var res domain.StoredResult
	var detail []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, siswa_id, group_soal_id, skor, jumlah_jawaban_benar, jumlah_soal, detail, created_at
		 FROM nilai WHERE id=$1`, nilaiID,
	).Scan(&res.ID, &res.SiswaID, &res.GroupSoalID, &res.Skor, &res.CorrectCount, &res.TotalCount, &detail, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StoredResult{}, fmt.Errorf("%w: result %s", domain.ErrNotFound, nilaiID)
	}
	if err != nil {
		return domain.StoredResult{}, fmt.Errorf("%w: load nilai: %v", domain.ErrServer, err)
	}
	if err := json.Unmarshal(detail, &res.Details); err != nil {
		return domain.StoredResult{}, fmt.Errorf("%w: decode details: %v", domain.ErrServer, err)
	}
	return res, nil
}
