package handlers

import (
	"bytes"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/help-queue/internal/api/dto"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/queue"
)

// pageData feeds every page template.
type pageData struct {
	User *dto.UserResponse
	// Notice is shown above the sign-in forms after a failed attempt.
	Notice      string
	View        queue.View
	Panel       string
	Prompt      string
	ErrorPrefix string
}

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"since": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"blank": func() domain.TicketFields { return domain.TicketFields{} },
}).Parse(pagesHTML))

func renderPage(c *fiber.Ctx, status int, name string, data pageData) error {
	data.Prompt = queue.SignInPrompt
	data.ErrorPrefix = queue.ErrorMessagePrefix
	data.Panel = data.View.Panel.String()

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

const pagesHTML = `
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Help Queue</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2330}
header{display:flex;align-items:center;gap:1.5rem;padding:.75rem 1.5rem;background:#1d2330;color:#fff}
header h1{font-size:1.25rem;margin:0}
header a{color:#cfe3ff;text-decoration:none;margin-right:1rem}
header .who{margin-left:auto;opacity:.8}
main{max-width:44rem;margin:1.5rem auto;padding:0 1rem}
.ticket{display:block;width:100%;text-align:left;padding:.75rem 1rem;margin:.5rem 0;background:#fff;border:1px solid #d7dbe2;border-radius:6px;cursor:pointer}
.ticket h3{margin:0 0 .25rem}
.meta{color:#5b6474;font-size:.85rem}
form.stack label{display:block;margin:.75rem 0 .25rem}
form.stack input{width:100%;padding:.5rem;box-sizing:border-box}
button{padding:.5rem 1rem;margin-top:.75rem}
.error{color:#a4161a}
.prompt{font-size:1.1rem}
</style>
</head>
<body>
<header>
<h1>Help Queue</h1>
<nav><a href="/">Home</a><a href="/sign-in">Sign In</a></nav>
{{if .User}}<span class="who">{{.User.Name}}</span>{{end}}
</header>
<main>
{{end}}

{{define "footer"}}</main>
</body>
</html>
{{end}}

{{define "ticket-form"}}
<label for="names">Names</label>
<input id="names" name="names" value="{{.Names}}" placeholder="Pair names" required>
<label for="location">Location</label>
<input id="location" name="location" value="{{.Location}}" placeholder="Location" required>
<label for="issue">Issue</label>
<input id="issue" name="issue" value="{{.Issue}}" placeholder="Describe your issue" required>
{{end}}

{{define "queue"}}{{template "header" .}}
{{if not .View.SignedIn}}
<p class="prompt">{{.Prompt}}</p>
{{else}}
{{with .View}}
{{if eq $.Panel "error"}}
<p class="error">{{$.ErrorPrefix}}{{.Error}}</p>
{{else if eq $.Panel "edit-form"}}
<h2>Edit Ticket</h2>
<form class="stack" method="post" action="/queue/edit/submit">
{{if .Ticket}}<input type="hidden" name="id" value="{{.Ticket.ID}}">{{template "ticket-form" .Ticket}}{{else}}{{template "ticket-form" blank}}{{end}}
<button type="submit">Update Ticket</button>
</form>
{{else if eq $.Panel "detail"}}
{{with .Ticket}}
<h2>Ticket Detail</h2>
<h3>{{.Names}}</h3>
<p><em>{{.Location}}</em></p>
<p>{{.Issue}}</p>
<p class="meta">Opened {{since .CreatedAt}}</p>
<form method="post" action="/queue/edit"><button type="submit">Update Ticket</button></form>
<form method="post" action="/queue/delete/{{.ID}}"><button type="submit">Close Ticket</button></form>
{{end}}
{{else if eq $.Panel "create-form"}}
<h2>New Ticket</h2>
<form class="stack" method="post" action="/queue/create">
{{template "ticket-form" blank}}
<button type="submit">Help!</button>
</form>
{{else}}
{{range .Tickets}}
<form method="post" action="/queue/select/{{.ID}}">
<button class="ticket" type="submit">
<h3>{{.Names}} - {{.Location}}</h3>
<span>{{.Issue}}</span>
<div class="meta">{{since .CreatedAt}}</div>
</button>
</form>
{{else}}
<p>The queue is empty.</p>
{{end}}
{{end}}
{{if .Button}}<form method="post" action="/queue/button"><button type="submit">{{.Button}}</button></form>{{end}}
{{end}}
{{if or (eq .Panel "list") (eq .Panel "detail")}}
<script>new EventSource("/queue/events").addEventListener("refresh", function () { location.reload(); });</script>
{{end}}
{{end}}
{{template "footer" .}}{{end}}

{{define "signin"}}{{template "header" .}}
{{if .Notice}}<p class="error">{{.Notice}}</p>{{end}}
{{if .User}}
<p>Signed in as {{.User.Name}} ({{.User.Email}}).</p>
<form method="post" action="/sign-out"><button type="submit">Sign Out</button></form>
{{else}}
<section>
<h2>Sign In</h2>
<form class="stack" method="post" action="/sign-in">
<label for="signin-email">Email</label>
<input id="signin-email" type="email" name="email" required>
<label for="signin-password">Password</label>
<input id="signin-password" type="password" name="password" required>
<button type="submit">Sign In</button>
</form>
</section>
<section>
<h2>Sign Up</h2>
<form class="stack" method="post" action="/sign-up">
<label for="signup-name">Name</label>
<input id="signup-name" name="name" required>
<label for="signup-email">Email</label>
<input id="signup-email" type="email" name="email" required>
<label for="signup-password">Password</label>
<input id="signup-password" type="password" name="password" required>
<button type="submit">Sign Up</button>
</form>
</section>
{{end}}
{{template "footer" .}}{{end}}
`
