package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
	"relTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"ordinal": humanize.Ordinal,
	"ratings": func() []int {
		return []int{1, 2, 3, 4, 5}
	},
}

// renderTemplate renders page name inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err := tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

// templates holds all page templates, keyed by name. Pages define
// "content"; entries under components/ are partials named after their
// base name.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    {{if .Session}}
    <nav class="bg-indigo-900 text-white shadow">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex items-center text-lg font-bold">{{.Heading}}</div>
                <div class="flex items-center space-x-4 text-sm">
                    <span>{{.Session.RoleLabel}}{{if .Session.Subject}} &middot; {{.Session.Subject}}{{end}}</span>
                    {{if not .Session.ExpiresAt.IsZero}}
                    <span class="text-indigo-200" title="{{formatTime .Session.ExpiresAt}}">session expires {{relTime .Session.ExpiresAt}}</span>
                    {{end}}
                    <a href="/logout" class="hover:underline">Logout</a>
                </div>
            </div>
        </div>
    </nav>
    {{end}}

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"components/flash": `{{if .Error}}
<div class="rounded-md bg-red-50 p-4 mb-4" role="alert">
    <div class="text-sm text-red-700">{{.Error}}</div>
</div>
{{end}}
{{if .Success}}
<div class="rounded-md bg-green-50 p-4 mb-4" role="status">
    <div class="text-sm text-green-700">{{.Success}}</div>
</div>
{{end}}`,

	"components/meeting_list": `<ul class="divide-y divide-gray-100 text-sm">
    {{range .}}
    <li class="py-2 flex justify-between">
        <span class="text-gray-500">{{.Date}} &middot; {{.StartTime}}</span>
        <span class="text-gray-900">{{.Title}}</span>
        <span class="text-gray-500">{{with .Location}}Room {{.}}{{end}}</span>
    </li>
    {{end}}
</ul>`,

	"components/student": `<div class="grid grid-cols-1 md:grid-cols-2 gap-6 mb-6">
    <section class="bg-white shadow rounded-lg p-6" id="profile">
        <h2 class="text-lg font-medium text-gray-900 mb-4">Student Profile</h2>
        <dl class="text-sm space-y-1">
            <div><dt class="inline text-gray-500">Name:</dt> <dd class="inline">{{with .Profile.FullName}}{{.}}{{else}}{{.Session.Subject}}{{end}}</dd></div>
            {{with .Profile.StudentID}}<div><dt class="inline text-gray-500">Student ID:</dt> <dd class="inline">{{.}}</dd></div>{{end}}
            {{with .Profile.Department}}<div><dt class="inline text-gray-500">Department:</dt> <dd class="inline">{{.}}</dd></div>{{end}}
            {{with .Profile.Year}}<div><dt class="inline text-gray-500">Year:</dt> <dd class="inline">{{ordinal .}} Year</dd></div>{{end}}
            {{with .Profile.Email}}<div><dt class="inline text-gray-500">Email:</dt> <dd class="inline">{{.}}</dd></div>{{end}}
        </dl>
    </section>

    <section class="bg-white shadow rounded-lg p-6" id="next-meeting">
        <h2 class="text-lg font-medium text-gray-900 mb-4">Next Meeting</h2>
        {{with .NextMeeting}}
        <p class="text-sm text-gray-900">{{.Title}}</p>
        <p class="text-sm text-gray-500">{{.Date}} &middot; {{.StartTime}}{{with .Location}} &middot; Room {{.}}{{end}}</p>
        <p class="text-sm text-indigo-700 mt-2" title="{{formatTime .At}}">starts {{$.NextIn}}</p>
        {{else}}
        <p class="text-sm text-gray-500">No upcoming meetings</p>
        {{end}}
    </section>
</div>

<section class="bg-white shadow rounded-lg p-6 mb-6" id="schedule">
    <h2 class="text-lg font-medium text-gray-900 mb-4">Meeting Schedule</h2>
    <h3 class="text-sm font-medium text-gray-700">Past Meeting Schedule</h3>
    {{if .Meetings.Past}}{{template "meeting_list" .Meetings.Past}}{{else}}<p class="text-sm text-gray-500">No past meetings</p>{{end}}
    <h3 class="mt-4 text-sm font-medium text-gray-700">Present Meeting Schedule</h3>
    {{if .Meetings.Today}}{{template "meeting_list" .Meetings.Today}}{{else}}<p class="text-sm text-gray-500">No current meetings</p>{{end}}
    <h3 class="mt-4 text-sm font-medium text-gray-700">Upcoming Meeting Schedule</h3>
    {{if .Meetings.Upcoming}}{{template "meeting_list" .Meetings.Upcoming}}{{else}}<p class="text-sm text-gray-500">No upcoming meetings</p>{{end}}
</section>

<section class="bg-white shadow rounded-lg p-6 mb-6" id="minutes">
    <h2 class="text-lg font-medium text-gray-900 mb-4">Meeting Minutes</h2>
    {{range .Minutes}}
    <article class="mb-4">
        <h3 class="text-sm font-medium text-gray-900">{{.Title}} <span class="text-gray-500">({{.Date}})</span></h3>
        <p class="text-sm text-gray-700 whitespace-pre-line">{{.Minutes}}</p>
    </article>
    {{else}}
    <p class="text-sm text-gray-500">No meeting minutes yet</p>
    {{end}}
</section>`,

	"login": `{{define "content"}}
<div class="min-h-screen flex items-center justify-center py-12 px-4 sm:px-6 lg:px-8">
    <div class="max-w-md w-full space-y-8">
        <div>
            <h2 class="mt-6 text-center text-3xl font-extrabold text-gray-900">
                Class Committee Feedback
            </h2>
            <p class="mt-2 text-center text-sm text-gray-600">Sign in to continue</p>
        </div>
        {{template "flash" .}}
        <form class="mt-8 space-y-6" action="/login" method="POST">
            <div class="rounded-md shadow-sm -space-y-px">
                <div>
                    <label for="username" class="sr-only">Username</label>
                    <input id="username" name="username" type="text" value="{{.Username}}"
                           class="appearance-none rounded-t-md relative block w-full px-3 py-2 border border-gray-300 text-gray-900 sm:text-sm"
                           placeholder="Username">
                </div>
                <div>
                    <label for="password" class="sr-only">Password</label>
                    <input id="password" name="password" type="password"
                           class="appearance-none rounded-b-md relative block w-full px-3 py-2 border border-gray-300 text-gray-900 sm:text-sm"
                           placeholder="Password">
                </div>
            </div>
            <button type="submit"
                    class="w-full flex justify-center py-2 px-4 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">
                Sign in
            </button>
        </form>
    </div>
</div>
{{end}}`,

	"respondent": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    {{template "flash" .}}
    {{if .Student}}{{template "student" .}}{{end}}
    <form method="GET" class="flex items-end space-x-4 mb-6">
        <label class="text-sm text-gray-700">Department
            <select name="department" class="block mt-1 border rounded px-2 py-1">
                {{range .Departments}}<option value="{{.ID}}" {{if eq .ID $.Department}}selected{{end}}>{{.Name}}</option>{{end}}
            </select>
        </label>
        {{if .Years}}
        <label class="text-sm text-gray-700">Year
            <select name="year" class="block mt-1 border rounded px-2 py-1">
                {{range .Years}}<option value="{{.}}" {{if eq . $.Year}}selected{{end}}>{{ordinal .}} Year</option>{{end}}
            </select>
        </label>
        {{end}}
        <button type="submit" class="px-3 py-1 rounded bg-gray-200 text-sm">Show</button>
    </form>

    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-medium text-gray-900 mb-4">Feedback questions</h2>
        {{if .Questions}}
        <form method="POST" action="{{.Action}}" class="space-y-4">
            <fieldset class="space-y-2">
                {{range .Questions}}
                <label class="flex items-center space-x-2 text-sm">
                    <input type="radio" name="question_id" value="{{.ID}}">
                    <span>{{.Text}}</span>
                </label>
                {{end}}
            </fieldset>
            <label class="block text-sm text-gray-700">Rating
                <select name="rating" class="block mt-1 border rounded px-2 py-1">
                    <option value="0">Select a rating</option>
                    {{range ratings}}<option value="{{.}}">{{.}}</option>{{end}}
                </select>
            </label>
            <label class="block text-sm text-gray-700">Notes
                <textarea name="notes" rows="3" class="block w-full mt-1 border rounded px-2 py-1"></textarea>
            </label>
            <button type="submit" class="px-4 py-2 rounded bg-indigo-600 text-white text-sm">Submit feedback</button>
        </form>
        {{else}}
        <p class="text-sm text-gray-500">No questions available.</p>
        {{end}}
    </div>
</div>
{{end}}`,

	"academic_director": `{{define "content"}}
<div class="px-4 py-6 sm:px-0 space-y-8">
    {{template "flash" .}}
    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-medium text-gray-900 mb-4">Send feedback questions</h2>
        <form method="POST" action="/academic-director-dashboard/questions" class="space-y-4">
            <div class="grid grid-cols-2 gap-4">
                <label class="text-sm text-gray-700">Recipients
                    <select name="target" class="block mt-1 border rounded px-2 py-1">
                        <option value="student">Student</option>
                        <option value="staff" {{if eq (print .Draft.TargetRole) "staff"}}selected{{end}}>Staff</option>
                    </select>
                </label>
                <label class="text-sm text-gray-700">Department
                    <select name="department" class="block mt-1 border rounded px-2 py-1">
                        <option value="">Select a department</option>
                        {{range .Departments}}<option value="{{.ID}}" {{if eq .ID $.Draft.DepartmentID}}selected{{end}}>{{.Name}}</option>{{end}}
                    </select>
                </label>
                <label class="text-sm text-gray-700">Year (students)
                    <select name="year" class="block mt-1 border rounded px-2 py-1">
                        <option value="">Select a year</option>
                        {{range .Years}}<option value="{{.}}" {{if eq . $.Draft.Year}}selected{{end}}>{{ordinal .}} Year</option>{{end}}
                    </select>
                </label>
                <label class="text-sm text-gray-700">Staff member (staff)
                    <select name="staff" class="block mt-1 border rounded px-2 py-1">
                        <option value="">Select a staff member</option>
                        {{range .Staff}}<option value="{{.ID}}" {{if eq .ID $.Draft.StaffID}}selected{{end}}>{{.Name}}</option>{{end}}
                    </select>
                </label>
            </div>
            <label class="block text-sm text-gray-700">Questions, one per line
                <textarea name="questions" rows="5" class="block w-full mt-1 border rounded px-2 py-1"></textarea>
            </label>
            <div class="space-x-2">
                <button type="submit" formaction="/academic-director-dashboard/questions/draft" class="px-4 py-2 rounded bg-gray-200 text-sm">Add to draft</button>
                <button type="submit" class="px-4 py-2 rounded bg-indigo-600 text-white text-sm">Send questions</button>
            </div>
        </form>

        <h3 class="mt-6 text-sm font-medium text-gray-900">Draft</h3>
        {{if .Draft.Questions}}
        <ul class="mt-2 space-y-2" id="draft">
            {{range .Draft.Questions}}
            <li class="flex items-center space-x-2">
                <form method="POST" action="/academic-director-dashboard/questions/draft/{{.ID}}" class="flex flex-1 space-x-2">
                    <input type="text" name="text" value="{{.Text}}" class="flex-1 border rounded px-2 py-1 text-sm">
                    <button type="submit" class="px-3 py-1 rounded bg-gray-200 text-sm">Save</button>
                </form>
                <form method="POST" action="/academic-director-dashboard/questions/draft/{{.ID}}/delete">
                    <button type="submit" class="px-3 py-1 rounded bg-red-100 text-red-700 text-sm">Delete</button>
                </form>
            </li>
            {{end}}
        </ul>
        {{else}}
        <p class="mt-2 text-sm text-gray-500">No questions in the draft.</p>
        {{end}}
    </div>

    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-medium text-gray-900 mb-4">Reports</h2>
        <a href="/academic-director-dashboard/report" class="inline-block px-4 py-2 rounded bg-indigo-600 text-white text-sm">Download report</a>
        <form method="POST" action="/academic-director-dashboard/report/share" class="mt-6 space-y-3">
            <input type="hidden" name="title" value="Feedback report">
            <p class="text-sm text-gray-700">Share the report with:</p>
            {{range .Staff}}
            <label class="flex items-center space-x-2 text-sm">
                <input type="checkbox" name="recipients" value="{{.ID}}">
                <span>{{.Name}} ({{.Department}})</span>
            </label>
            {{end}}
            <button type="submit" class="px-4 py-2 rounded bg-gray-200 text-sm">Share report</button>
        </form>
    </div>
</div>
{{end}}`,

	"executive_director": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    {{template "flash" .}}
    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-medium text-gray-900 mb-2">Welcome, {{.Session.RoleLabel}}</h2>
        <p class="text-sm text-gray-500">Departments under review:</p>
        <ul class="mt-2 list-disc list-inside text-sm text-gray-700">
            {{range .Departments}}<li>{{.Name}}</li>{{end}}
        </ul>
    </div>
</div>
{{end}}`,
}
