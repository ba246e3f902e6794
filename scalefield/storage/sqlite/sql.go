package sqlite

import "github.com/scalefield/scalefield/scalefield/storage"

var SQLTemplates = storage.SQL{
	GetMeta: "SELECT value FROM meta WHERE key = ?1",
	SetMeta: "INSERT INTO meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO UPDATE SET value=excluded.value",

	UpsertDoc: `INSERT INTO docs(doc_id, created_at, updated_at, ignored)
		VALUES(?1, ?2, ?3, ?4)
		ON CONFLICT(doc_id) DO UPDATE SET updated_at=excluded.updated_at, ignored=excluded.ignored
		RETURNING id, created_at`,
	FindDocByID:   "SELECT id, created_at FROM docs WHERE doc_id = ?1",
	GetDocByID:    "SELECT id, created_at, updated_at, ignored FROM docs WHERE doc_id = ?1",
	DeleteDocByID: "DELETE FROM docs WHERE id = ?1",

	DeletePointsByDoc:    "DELETE FROM field_points WHERE item_id = ?1",
	DeleteDocValuesByDoc: "DELETE FROM field_doc_values WHERE item_id = ?1",
	DeleteStoredByDoc:    "DELETE FROM field_stored WHERE item_id = ?1",

	InsertPoint:    "INSERT INTO field_points(item_id, field, value) VALUES(?1, ?2, ?3)",
	InsertDocValue: "INSERT INTO field_doc_values(item_id, field, ord, value) VALUES(?1, ?2, ?3, ?4)",
	InsertStored:   "INSERT INTO field_stored(item_id, field, ord, value) VALUES(?1, ?2, ?3, ?4)",

	SelectRange: `SELECT DISTINCT d.doc_id FROM field_points p
		JOIN docs d ON d.id = p.item_id
		WHERE p.field = ?1 AND p.value >= ?2 AND p.value <= ?3
		ORDER BY d.doc_id`,

	SelectFieldValues:    "SELECT value FROM field_doc_values WHERE field = ?1",
	SelectDocValuesByDoc: "SELECT field, ord, value FROM field_doc_values WHERE item_id = ?1 ORDER BY field, ord",
	SelectStoredByDoc:    "SELECT field, ord, value FROM field_stored WHERE item_id = ?1 ORDER BY field, ord",

	CountDocs: "SELECT COUNT(*) FROM docs",
}
