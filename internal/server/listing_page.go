package server

import (
	"bytes"
	"html/template"
	"time"

	"github.com/mitm-cache/mitm-cache/internal/listing"
	"github.com/mitm-cache/mitm-cache/internal/target"
)

var listingTemplate = template.Must(template.New("list").Funcs(template.FuncMap{
	"unix": func(sec int64) string {
		return time.Unix(sec, 0).UTC().Format(time.RFC3339)
	},
	"encode": target.Encode,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>mitm-cache</title></head>
<body>
<h1>Cached responses ({{len .Entries}})</h1>
<table>
<thead><tr><th>URL</th><th>Fetched</th><th>Age (s)</th><th>Bytes</th><th>Hits</th></tr></thead>
<tbody>
{{- range .Entries}}
<tr>
<td>{{if $.Key}}<a href="/request/0/{{encode .URL}}/{{$.Key}}">{{.URL}}</a>{{else}}{{.URL}}{{end}}</td>
<td>{{unix .FetchedAt}}</td>
<td>{{.AgeSeconds}}</td>
<td>{{.Bytes}}</td>
<td>{{.Hits}}</td>
</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type listingPage struct {
	Entries []listing.Entry
	// Key 仅在凭证来自路径时填充，用于生成可直接点击的刷新链接。
	Key string
}

func renderListing(entries []listing.Entry, key string) ([]byte, error) {
	var buf bytes.Buffer
	if err := listingTemplate.Execute(&buf, listingPage{Entries: entries, Key: key}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
