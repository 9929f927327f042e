package agent

import (
	"strings"

	"github.com/FellowTraveler/opengpts/session"
	"github.com/FellowTraveler/opengpts/tools"
)

// DefaultTemplate teaches the model the tool markup. Placeholders:
// {system_message}, {tools} and {tool_names}.
const DefaultTemplate = `{system_message}

You have access to the following tools:

{tools}

In order to use a tool, you can use <tool></tool> and <tool_input></tool_input> tags. You will then get back a response in the form <observation></observation>
For example, if you have a tool called 'search' that could run a google search, in order to search for the weather in SF you would respond:

<tool>search</tool><tool_input>weather in SF</tool_input>
<observation>64 degrees</observation>

When you are done, respond as normal to the user, without any tool tags.

The only tools you may use are: {tool_names}

Begin!`

// AssembleSystemMessage fills a template with the user's instructions and
// the catalog. An empty template means DefaultTemplate.
func AssembleSystemMessage(template, systemMessage string, catalog *tools.Catalog) session.Message {
	if template == "" {
		template = DefaultTemplate
	}
	r := strings.NewReplacer(
		"{system_message}", systemMessage,
		"{tools}", catalog.Describe(),
		"{tool_names}", strings.Join(catalog.Names(), ", "),
	)
	return session.SystemInstruction(r.Replace(template))
}
