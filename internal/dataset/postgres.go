package dataset

import (
	"context"
	"database/sql"
	"sort"

	"github.com/lib/pq"

	"passport-map/internal/category"
	"passport-map/internal/logger"
)

// EnsureSchema：首次运行创建数据集表；只建最小结构，不写入数据
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _passport_rows (
            id SERIAL PRIMARY KEY,
            category TEXT NOT NULL,
            seq INT NOT NULL DEFAULT 0,
            country_code TEXT NOT NULL,
            country_name_en TEXT NOT NULL DEFAULT '',
            country_name_mn TEXT NOT NULL DEFAULT '',
            visa_free_duration TEXT NOT NULL DEFAULT '',
            effective_date TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            passport_type TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE INDEX IF NOT EXISTS idx_passport_rows_cat_seq ON _passport_rows(category, seq)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// LoadPostgres：按类别分组读取；组按优先级从高到低排列，组内按 seq
func LoadPostgres(ctx context.Context, db *sql.DB) ([]category.Dataset, error) {
	rows, err := db.QueryContext(ctx, `SELECT category, country_code, country_name_en, country_name_mn,
        visa_free_duration, effective_date, notes, passport_type
        FROM _passport_rows ORDER BY category, seq, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := map[category.Category]*category.Dataset{}
	for rows.Next() {
		var cat string
		var r category.Row
		if err := rows.Scan(&cat, &r.CountryCode, &r.NameEn, &r.NameLocal, &r.Duration, &r.EffectiveDate, &r.Notes, &r.PassportType); err != nil {
			return nil, err
		}
		c := category.ParseCategory(cat)
		g, ok := groups[c]
		if !ok {
			g = &category.Dataset{Category: c}
			groups[c] = g
		}
		g.Rows = append(g.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orderGroups(groups), nil
}

func orderGroups(groups map[category.Category]*category.Dataset) []category.Dataset {
	out := make([]category.Dataset, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return category.Rank(out[i].Category) > category.Rank(out[j].Category) })
	return out
}

// ImportPostgres：事务内整类替换；同一类别先删后以 COPY 批量写入，seq 保留文件内顺序
// 异常：任一环节失败整体回滚，旧数据保持不变
func ImportPostgres(ctx context.Context, db *sql.DB, datasets []category.Dataset) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	for _, ds := range datasets {
		if _, err := tx.ExecContext(ctx, `DELETE FROM _passport_rows WHERE category = $1`, ds.Category.String()); err != nil {
			return 0, err
		}
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("_passport_rows",
		"category", "seq", "country_code", "country_name_en", "country_name_mn",
		"visa_free_duration", "effective_date", "notes", "passport_type"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ds := range datasets {
		for i, r := range ds.Rows {
			if _, err := stmt.ExecContext(ctx, ds.Category.String(), i, r.CountryCode, r.NameEn, r.NameLocal,
				r.Duration, r.EffectiveDate, r.Notes, r.PassportType); err != nil {
				_ = stmt.Close()
				return 0, err
			}
			n++
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Info("dataset_import_ok", "datasets", len(datasets), "rows", n)
	return n, nil
}
