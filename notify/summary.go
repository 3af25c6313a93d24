package notify

import (
	"fmt"

	"github.com/osteele/liquid"
)

const summaryTemplate = `<h2>{{ title | escape }}</h2>
<p>Sites and subnets with a location starting with <b>{{ country_codes | join: ", " | escape }}</b>
were compared with the office of users and the location of printers.</p>
<table>
  <tr><th>Sites</th><td>{{ sites }}</td></tr>
  <tr><th>Subnets</th><td>{{ subnets }}</td></tr>
  <tr><th>Users without a matching subnet location</th><td>{{ users }}</td></tr>
  <tr><th>Printers without a matching subnet location</th><td>{{ printers }}</td></tr>
</table>
{% if attachments > 0 %}<p><i>* Check the attachments for details</i></p>{% endif %}
<p>Organizational units:</p>
<ul>
{% for ou in ous %}  <li>{{ ou | escape }}</li>
{% endfor %}</ul>
`

// Summary is the data shown in the summary mail.
type Summary struct {
	Title        string
	CountryCodes []string
	OUs          []string
	Sites        int
	Subnets      int
	Users        int
	Printers     int
	Attachments  int
}

// Subject is "<n> users, <m> printers" with the anomaly counts.
func (s Summary) Subject() string {
	return fmt.Sprintf("%d users, %d printers", s.Users, s.Printers)
}

var engine = liquid.NewEngine()

// RenderSummary renders the HTML body of the summary mail.
func RenderSummary(s Summary) (string, error) {
	out, err := engine.ParseAndRenderString(summaryTemplate, liquid.Bindings{
		"title":         s.Title,
		"country_codes": s.CountryCodes,
		"ous":           s.OUs,
		"sites":         s.Sites,
		"subnets":       s.Subnets,
		"users":         s.Users,
		"printers":      s.Printers,
		"attachments":   s.Attachments,
	})
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}
