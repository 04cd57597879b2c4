// Package all links every built-in storage backend. Import it for side
// effects only:
//
//	import _ "csvrecord/internal/storage/all"
//
// after which storage.New and storage.EnsureTable accept the kinds
// "postgres", "mssql", "sqlite", "mysql" and "stdout".
package all

import (
	_ "csvrecord/internal/storage/mssql"
	_ "csvrecord/internal/storage/mysql"
	_ "csvrecord/internal/storage/postgres"
	_ "csvrecord/internal/storage/sqlite"
	_ "csvrecord/internal/storage/stdout"
)
