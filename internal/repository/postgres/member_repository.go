package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
)

const memberColumns = `
	m.id, m.username, m.name, m.city, m.street, m.zipcode, m.created_at,
	ms.id, ms.member_id, ms.grade, ms.total_spending, ms.deleted, ms.deleted_at, ms.updated_at`

const memberFrom = `FROM members m JOIN memberships ms ON ms.member_id = m.id`

var memberSortColumns = map[string]string{
	domain.SortByID:       "m.id",
	domain.SortByUsername: "m.username",
}

type memberRepository struct{ *repositories }

func scanMember(row scanner) (domain.Member, error) {
	var m domain.Member
	var (
		grade     string
		spending  int64
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.Username, &m.Name, &m.Address.City, &m.Address.Street, &m.Address.Zipcode, &m.CreatedAt,
		&m.Membership.ID, &m.Membership.MemberID, &grade, &spending, &m.Membership.Deleted, &deletedAt, &m.Membership.UpdatedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	m.Membership.Grade = domain.Grade(grade)
	m.Membership.TotalSpending = domain.NewMoney(spending)
	if deletedAt.Valid {
		t := deletedAt.Time
		m.Membership.DeletedAt = &t
	}
	return m, nil
}

func (r memberRepository) Create(ctx context.Context, member domain.Member) error {
	ctx, span := r.tracer.Start(ctx, "members.create",
		trace.WithAttributes(attribute.String("member.id", member.ID.String())))
	defer span.End()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO members (id, username, name, city, street, zipcode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, member.ID, member.Username, member.Name,
		member.Address.City, member.Address.Street, member.Address.Zipcode, member.CreatedAt)
	if err != nil {
		return storageErr(err)
	}

	ms := member.Membership
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO memberships (id, member_id, grade, total_spending, deleted, deleted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ms.ID, member.ID, string(ms.Grade), ms.TotalSpending.Amount(), ms.Deleted, ms.DeletedAt, ms.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (r memberRepository) Get(ctx context.Context, id uuid.UUID) (domain.Member, error) {
	ctx, span := r.tracer.Start(ctx, "members.get",
		trace.WithAttributes(attribute.String("member.id", id.String())))
	defer span.End()

	m, err := scanMember(r.q.QueryRowContext(ctx, `SELECT `+memberColumns+` `+memberFrom+` WHERE m.id = $1`, id))
	if isNoRows(err) {
		return domain.Member{}, domain.NotFound("member %s not found", id)
	}
	if err != nil {
		return domain.Member{}, storageErr(err)
	}
	return m, nil
}

func (r memberRepository) GetByUsername(ctx context.Context, username string) (domain.Member, error) {
	ctx, span := r.tracer.Start(ctx, "members.get_by_username")
	defer span.End()

	m, err := scanMember(r.q.QueryRowContext(ctx, `SELECT `+memberColumns+` `+memberFrom+` WHERE m.username = $1`, username))
	if isNoRows(err) {
		return domain.Member{}, domain.NotFound("member %q not found", username)
	}
	if err != nil {
		return domain.Member{}, storageErr(err)
	}
	return m, nil
}

func (r memberRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Member, error) {
	ctx, span := r.tracer.Start(ctx, "members.list",
		trace.WithAttributes(attribute.String("page.sort", page.Sort.String())))
	defer span.End()

	order, err := orderBy(page.Sort, memberSortColumns, "m.id")
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+memberColumns+` `+memberFrom+` `+order+` LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return members, nil
}
