package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// outcomeData drives the HTML page shown to the operator after clicking an
// approve or reject link in the notification email.
type outcomeData struct {
	Title string
	Body  string
	OK    bool
}

var outcomeTmpl = template.Must(template.New("outcome").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>{{.Title}}</title>
</head>
<body style="margin:0;background:#0b0f17;color:white;font-family:system-ui,Arial;">
  <div style="max-width:760px;margin:0 auto;padding:28px;">
    <div style="border:1px solid rgba(255,255,255,.1);border-radius:18px;background:rgba(255,255,255,.04);overflow:hidden;">
      <div style="height:6px;background:{{if .OK}}#2F7DF6{{else}}#FF4D4D{{end}};"></div>
      <div style="padding:18px;">
        <h2>{{.Title}}</h2>
        <div style="line-height:1.6;color:#ccc;">{{.Body}}</div>
      </div>
    </div>
  </div>
</body>
</html>`))

// renderOutcome writes the outcome page. Decision links are opened in a
// browser by a human, so these endpoints answer with HTML rather than JSON.
func renderOutcome(c *gin.Context, status int, data outcomeData) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := outcomeTmpl.Execute(c.Writer, data); err != nil {
		c.String(http.StatusInternalServerError, "failed to render page")
	}
}
