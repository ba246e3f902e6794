package postgres

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT
);

CREATE TABLE IF NOT EXISTS docs (
  id         BIGSERIAL PRIMARY KEY,
  doc_id     TEXT UNIQUE NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  ignored    TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS field_points (
  item_id BIGINT NOT NULL REFERENCES docs(id) ON DELETE CASCADE,
  field   TEXT   NOT NULL,
  value   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_points_lookup ON field_points(field, value, item_id);
CREATE INDEX IF NOT EXISTS idx_points_item   ON field_points(item_id);

CREATE TABLE IF NOT EXISTS field_doc_values (
  item_id BIGINT  NOT NULL REFERENCES docs(id) ON DELETE CASCADE,
  field   TEXT    NOT NULL,
  ord     INTEGER NOT NULL,
  value   BIGINT  NOT NULL,
  PRIMARY KEY (item_id, field, ord)
);
CREATE INDEX IF NOT EXISTS idx_dv_lookup ON field_doc_values(field, value);

CREATE TABLE IF NOT EXISTS field_stored (
  item_id BIGINT  NOT NULL REFERENCES docs(id) ON DELETE CASCADE,
  field   TEXT    NOT NULL,
  ord     INTEGER NOT NULL,
  value   BIGINT  NOT NULL,
  PRIMARY KEY (item_id, field, ord)
);
`
