package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

var searchRequestColumns = []string{
	"search_id", "owner_id", "raw_input_text", "generated_filter", "criteria", "created_at", "updated_at",
}

func TestQueryStoreCreateSearch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO search_requests").
		WithArgs(pgxmock.AnyArg(), "owner-1", "ML engineers in Seoul").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := NewQueryStore(mock)
	req, err := store.CreateSearch(context.Background(), "owner-1", "ML engineers in Seoul")
	require.NoError(t, err)

	assert.NotEmpty(t, req.SearchID)
	assert.Equal(t, "owner-1", req.OwnerID)
	assert.Equal(t, now, req.CreatedAt)
	assert.False(t, req.HasGeneration())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryStoreGetSearch(t *testing.T) {
	now := time.Now()

	t.Run("with cached generation", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		filterJSON := []byte(`{"field":"company_name","operator":"contains","value":"Kakao"}`)
		criteriaJSON := []byte(`["Worked at Kakao"]`)
		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("s-1").
			WillReturnRows(pgxmock.NewRows(searchRequestColumns).
				AddRow("s-1", "owner-1", "kakao people", filterJSON, criteriaJSON, now, now))

		req, err := NewQueryStore(mock).GetSearch(context.Background(), "s-1")
		require.NoError(t, err)
		require.True(t, req.HasGeneration())
		assert.Equal(t, filter.Field("company_name"), req.GeneratedFilter.Field)
		assert.Equal(t, []string{"Worked at Kakao"}, req.Criteria)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without generation", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("s-2").
			WillReturnRows(pgxmock.NewRows(searchRequestColumns).
				AddRow("s-2", "owner-1", "anyone", []byte(nil), []byte(nil), now, now))

		req, err := NewQueryStore(mock).GetSearch(context.Background(), "s-2")
		require.NoError(t, err)
		assert.False(t, req.HasGeneration())
		assert.Empty(t, req.Criteria)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewQueryStore(mock).GetSearch(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, talentErrors.ErrNotFound)
	})

	t.Run("blank input text is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("blank").
			WillReturnRows(pgxmock.NewRows(searchRequestColumns).
				AddRow("blank", "owner-1", "   ", []byte(nil), []byte(nil), now, now))

		_, err = NewQueryStore(mock).GetSearch(context.Background(), "blank")
		assert.ErrorIs(t, err, talentErrors.ErrNotFound)
	})

	t.Run("undecodable cached filter is rejected", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("bad").
			WillReturnRows(pgxmock.NewRows(searchRequestColumns).
				AddRow("bad", "owner-1", "text", []byte(`{"field":"bio","sql":"1=1"}`), []byte(nil), now, now))

		_, err = NewQueryStore(mock).GetSearch(context.Background(), "bad")
		assert.ErrorIs(t, err, talentErrors.ErrFilterRejected)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT search_id, owner_id").
			WithArgs("s-3").
			WillReturnError(errors.New("connection reset"))

		_, err = NewQueryStore(mock).GetSearch(context.Background(), "s-3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.False(t, talentErrors.IsType(err, talentErrors.ErrorTypeNotFound))
	})
}

func TestQueryStoreSaveGeneration(t *testing.T) {
	expr := filter.Contains(filter.FieldCompanyName, "Kakao")

	t.Run("updates row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE search_requests").
			WithArgs("s-1",
				`{"field":"company_name","operator":"contains","value":"Kakao"}`,
				`["Worked at Kakao"]`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewQueryStore(mock).SaveGeneration(context.Background(), "s-1", expr, []string{"Worked at Kakao"})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE search_requests").
			WithArgs("gone", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewQueryStore(mock).SaveGeneration(context.Background(), "gone", expr, []string{"x"})
		assert.ErrorIs(t, err, talentErrors.ErrNotFound)
	})

	t.Run("nil filter is refused", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		err = NewQueryStore(mock).SaveGeneration(context.Background(), "s-1", nil, nil)
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPageStore(t *testing.T) {
	t.Run("get miss", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT candidate_ids").
			WithArgs("s-1", 0).
			WillReturnError(pgx.ErrNoRows)

		page, found, err := NewPageStore(mock).GetPage(context.Background(), "s-1", 0)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, page)
	})

	t.Run("get hit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT candidate_ids").
			WithArgs("s-1", 2).
			WillReturnRows(pgxmock.NewRows([]string{"candidate_ids"}).AddRow([]string{"c1", "c2"}))

		page, found, err := NewPageStore(mock).GetPage(context.Background(), "s-1", 2)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"c1", "c2"}, page.CandidateIDs)
		assert.Equal(t, types.PageSourceDatabase, page.Source)
	})

	t.Run("put returns canonical page", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		// A concurrent writer already stored c1, so the insert keeps it.
		mock.ExpectQuery("INSERT INTO search_result_pages").
			WithArgs("s-1", 0, []string{"c9"}).
			WillReturnRows(pgxmock.NewRows([]string{"candidate_ids"}).AddRow([]string{"c1"}))

		stored, err := NewPageStore(mock).PutPage(context.Background(), types.ResultPage{
			SearchID: "s-1", PageIndex: 0, CandidateIDs: []string{"c9"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, stored.CandidateIDs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page is stored as empty array", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("INSERT INTO search_result_pages").
			WithArgs("s-1", 5, []string{}).
			WillReturnRows(pgxmock.NewRows([]string{"candidate_ids"}).AddRow([]string{}))

		stored, err := NewPageStore(mock).PutPage(context.Background(), types.ResultPage{SearchID: "s-1", PageIndex: 5})
		require.NoError(t, err)
		assert.NotNil(t, stored.CandidateIDs)
		assert.Empty(t, stored.CandidateIDs)
	})
}

func TestCandidateSearcherBuildQuery(t *testing.T) {
	validated, err := filter.NewValidator(filter.Limits{}).Validate(filter.And(
		filter.Contains(filter.FieldCompanyName, "Kakao"),
		filter.Or(
			filter.Contains(filter.FieldRole, "engineer"),
			filter.Contains(filter.FieldHeadline, "100%_real"),
		),
	))
	require.NoError(t, err)

	query, args := NewCandidateSearcher(nil).BuildQuery(validated, 3)

	assert.Contains(t, query, `(co.name ILIKE $1 ESCAPE '\' AND (e.role ILIKE $2 ESCAPE '\' OR c.headline ILIKE $3 ESCAPE '\'))`)
	assert.Contains(t, query, "GROUP BY c.id")
	assert.Contains(t, query, "ORDER BY c.id ASC")
	assert.Contains(t, query, "LIMIT $4 OFFSET $5")
	assert.NotContains(t, query, "Kakao")
	assert.Equal(t, []any{"%Kakao%", "%engineer%", `%100\%\_real%`, 10, 30}, args)
}

func TestCandidateSearcherSearchPage(t *testing.T) {
	validated, err := filter.NewValidator(filter.Limits{}).Validate(filter.Contains(filter.FieldCompanyName, "Kakao"))
	require.NoError(t, err)

	t.Run("returns ids in order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT c.id::text").
			WithArgs("%Kakao%", 10, 10).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c11").AddRow("c12"))

		ids, err := NewCandidateSearcher(mock).SearchPage(context.Background(), validated, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"c11", "c12"}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("past the end is empty", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT c.id::text").
			WithArgs("%Kakao%", 10, 990).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		ids, err := NewCandidateSearcher(mock).SearchPage(context.Background(), validated, 99)
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})

	t.Run("query failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT c.id::text").
			WithArgs("%Kakao%", 10, 0).
			WillReturnError(errors.New("canceling statement due to statement timeout"))

		_, err = NewCandidateSearcher(mock).SearchPage(context.Background(), validated, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query candidates")
	})

	t.Run("negative page index", func(t *testing.T) {
		_, err := NewCandidateSearcher(nil).SearchPage(context.Background(), validated, -1)
		assert.Error(t, err)
	})
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS search_requests").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, Schema(), "search_result_pages")
}
