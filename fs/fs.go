// Package appfs embeds the SQL migrations and the email templates.
package appfs

import "embed"

//go:embed migrations/*.sql templates
var FS embed.FS
