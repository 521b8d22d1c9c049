package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
)

const membershipColumns = `id, member_id, grade, total_spending, deleted, deleted_at, updated_at`

type membershipRepository struct{ *repositories }

func scanMembership(row scanner) (domain.Membership, error) {
	var (
		m         domain.Membership
		grade     string
		spending  int64
		deletedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.MemberID, &grade, &spending, &m.Deleted, &deletedAt, &m.UpdatedAt); err != nil {
		return domain.Membership{}, err
	}
	m.Grade = domain.Grade(grade)
	m.TotalSpending = domain.NewMoney(spending)
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}
	return m, nil
}

func (r membershipRepository) LockByMemberID(ctx context.Context, memberID uuid.UUID) (domain.Membership, error) {
	ctx, span := r.tracer.Start(ctx, "memberships.lock_by_member_id",
		trace.WithAttributes(attribute.String("member.id", memberID.String())))
	defer span.End()

	m, err := scanMembership(r.q.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE member_id = $1
		FOR UPDATE
	`, memberID))
	if isNoRows(err) {
		return domain.Membership{}, domain.NotFound("membership of member %s not found", memberID)
	}
	if err != nil {
		return domain.Membership{}, storageErr(err)
	}
	return m, nil
}

func (r membershipRepository) Save(ctx context.Context, m domain.Membership) error {
	ctx, span := r.tracer.Start(ctx, "memberships.save",
		trace.WithAttributes(
			attribute.String("member.id", m.MemberID.String()),
			attribute.String("membership.grade", string(m.Grade)),
		))
	defer span.End()

	res, err := r.q.ExecContext(ctx, `
		UPDATE memberships
		SET grade = $2, total_spending = $3, deleted = $4, deleted_at = $5, updated_at = $6
		WHERE member_id = $1
	`, m.MemberID, string(m.Grade), m.TotalSpending.Amount(), m.Deleted, m.DeletedAt, m.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return domain.NotFound("membership of member %s not found", m.MemberID)
	}
	return nil
}

func (r membershipRepository) ListActiveMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := r.tracer.Start(ctx, "memberships.list_active")
	defer span.End()

	rows, err := r.q.QueryContext(ctx, `SELECT member_id FROM memberships WHERE NOT deleted ORDER BY member_id`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	span.SetAttributes(attribute.Int("membership.count", len(ids)))
	return ids, nil
}

func (r membershipRepository) LockActive(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "memberships.lock_active")
	defer span.End()

	rows, err := r.q.QueryContext(ctx, `SELECT id FROM memberships WHERE NOT deleted ORDER BY id FOR UPDATE`)
	if err != nil {
		return 0, storageErr(err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, storageErr(err)
	}
	span.SetAttributes(attribute.Int("membership.locked", n))
	return n, nil
}

// bandPredicate renders the half-open interval of band over total_spending,
// numbering placeholders from next.
func bandPredicate(band domain.Band, next int) (string, []any) {
	conds := []string{"NOT deleted"}
	var args []any
	if band.From != nil {
		conds = append(conds, fmt.Sprintf("total_spending >= $%d", next))
		args = append(args, band.From.Amount())
		next++
	}
	if band.To != nil {
		conds = append(conds, fmt.Sprintf("total_spending < $%d", next))
		args = append(args, band.To.Amount())
	}
	return strings.Join(conds, " AND "), args
}

func (r membershipRepository) AssignGrade(ctx context.Context, band domain.Band) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "memberships.assign_grade",
		trace.WithAttributes(attribute.String("membership.grade", string(band.Grade))))
	defer span.End()

	where, args := bandPredicate(band, 2)
	res, err := r.q.ExecContext(ctx,
		`UPDATE memberships SET grade = $1, updated_at = NOW() WHERE `+where,
		append([]any{string(band.Grade)}, args...)...)
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(err)
	}
	span.SetAttributes(attribute.Int64("membership.updated", n))
	return n, nil
}

func (r membershipRepository) ResetSpending(ctx context.Context) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "memberships.reset_spending")
	defer span.End()

	res, err := r.q.ExecContext(ctx, `UPDATE memberships SET total_spending = 0, updated_at = NOW() WHERE NOT deleted`)
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(err)
	}
	span.SetAttributes(attribute.Int64("membership.updated", n))
	return n, nil
}
