package prompt

const systemText = `You are an expert in B2B marketing and audience analysis.
Evaluate the message's resonance with the given persona.
Respond with a single JSON object and nothing else.
IMPORTANT: %s must be an integer between 1 and 10.`

const itAdminText = `
As an IT professional with this background: {{.Persona}}
Evaluate this technology message: {{.Message}}

Judge it the way you would judge a vendor pitch landing in your inbox:
is it technically credible, what would it change for your team, and
what would stop you from rolling it out?
`

const facilitiesText = `
As a facilities and building operations professional with this background: {{.Persona}}
Evaluate this message: {{.Message}}

Consider maintenance workload, uptime of building systems, the people on
site, and what it would take to put this into service across your sites.
`

const executiveText = `
As a business executive with this background: {{.Persona}}
Evaluate this message: {{.Message}}

Consider strategic fit, return on investment, risk to the organization,
and what you would need to hear before approving the spend.
`

const retailText = `
As a retail consumer with this background: {{.Persona}}
Evaluate this retail message: {{.Message}}
`

const multifamilyText = `
As a potential resident with this background: {{.Persona}}
Evaluate this property message: {{.Message}}
`

const schemaText = `
Return a JSON with:
- {{.Schema.ScoreField}} (integer 1-10)
{{- range .Schema.Fields}}
- {{.Name}}{{if .IsList}} (list of strings){{end}}{{with .Hint}}: {{.}}{{end}}
{{- end}}
`
