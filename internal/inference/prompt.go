package inference

import (
	"fmt"
	"strings"

	"github.com/examprep/examprep/internal/catalog"
)

// FlowchartTopicTitle is the topic whose material has to be drawn as Mermaid flowcharts.
const FlowchartTopicTitle = "Logical Reasoning using Flowcharts"

const examName = "New York State Information Technology Specialist 3 and 4"

// StudyGuidePrompt asks for a Markdown study guide restricted to the formatter's subset.
func StudyGuidePrompt(topic catalog.Topic) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert in Information Technology and career development, tasked with creating a study guide.

Generate a comprehensive study guide for an aspiring **%s** on the topic of: **"%s"**.
`, examName, topic.Title)

	if topic.OfficialDescription != "" {
		fmt.Fprintf(&b, `
The NYS examination board provides the following official description for this subject:
_"%s"_

Please ensure the study guide is strictly aligned with this official description.
`, topic.OfficialDescription)
	}

	b.WriteString(`
The guide must be detailed, well-structured, and easy to understand. Structure the output in Markdown format and include the following sections:

- ## Core Concepts
  - Explain the fundamental principles and key terminology. Use bullet points for clarity.
- ## Key Responsibilities & Skills
  - Detail what a specialist at this level in NYS is expected to do and know regarding this topic.
- ## Best Practices & Methodologies
  - Provide actionable advice, standard procedures, and proven methodologies relevant to NYS government IT.
- ## Practical Scenarios/Examples
  - Give at least two real-world examples or scenarios to illustrate the concepts in a practical NYS IT environment.
- ## Potential Interview Questions
  - List 3-5 relevant interview questions. For each question, provide a brief explanation of what a strong answer should cover.

Ensure the language is professional and tailored to someone preparing for a senior technical specialist role within New York State. Use bold text for emphasis on key terms.
`)

	if topic.Title == FlowchartTopicTitle {
		b.WriteString(`
For the "Practical Scenarios/Examples" section, you MUST create flowchart diagrams for each example.
Represent these diagrams using **Mermaid syntax** inside a markdown code block.
**CRITICAL MERMAID RULES**:
1. The graph definition (e.g., ` + "`graph TD`" + `) MUST be on its own line.
2. Use ONLY standard arrows ` + "`-->`" + `.
3. Enclose node text with special characters in double quotes (e.g., ` + "`A[\"Node with > char\"]`" + `).

Example:
` + "```mermaid" + `
graph TD
    A[Start] --> B{Is it a good idea?};
    B -->|Yes| C[Do it];
    B -->|No| D[Don't do it];
    C --> E[End];
    D --> E[End];
` + "```" + `
`)
	}
	return b.String()
}

var difficultyInstructions = map[Difficulty]string{
	DifficultyEasy:   "The questions should be **easy**, focusing on foundational concepts and definitions.",
	DifficultyMedium: "The questions should be of **medium** difficulty, focusing on applying concepts to practical situations.",
	DifficultyHard:   "The questions should be **hard**, presenting complex, multi-step scenarios that require deep analysis and synthesis of information.",
}

// QuizPrompt asks for count multiple-choice questions with four options each.
func QuizPrompt(topic catalog.Topic, difficulty Difficulty, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create a multiple-choice quiz with %d questions for a **%s** on the topic: **"%s"**.

**Difficulty Level: %s**. %s
`, count, examName, topic.Title, strings.ToUpper(string(difficulty)), difficultyInstructions[difficulty])

	if topic.OfficialDescription != "" {
		fmt.Fprintf(&b, "\nThe questions must be strictly based on the following official examination subject description: %q\n", topic.OfficialDescription)
	}
	b.WriteString(`The questions should reflect scenarios and terminology relevant to a government IT environment.
For each question, provide 4 distinct options.
Indicate the correct answer and provide a brief, clear explanation for why it's correct.
`)

	if topic.Title == FlowchartTopicTitle {
		b.WriteString(`
**IMPORTANT INSTRUCTIONS FOR FLOWCHARTS**:
1. For each question, you MUST generate a flowchart diagram to be analyzed.
2. The diagram must be represented using valid **Mermaid syntax** for a Top-Down graph (` + "`graph TD`" + `).
3. **CRITICAL STRUCTURE**: The graph definition MUST be on its own line. All node and link definitions must start on new lines following it.
4. Embed the Mermaid syntax inside the 'question' field of the JSON output, enclosed in a markdown code block (` + "```mermaid ... ```" + `).
5. **CRITICAL SYNTAX - NODES**: Ensure all node text containing special characters (like >, <, =, (, ), -) is enclosed in double quotes. For example: ` + "`A[\"Is X > 5?\"] --> B`" + `.
6. **CRITICAL SYNTAX - LINKS**: Use ONLY the standard arrow ` + "`-->`" + ` for links. Always use quotes for link text: ` + "`C -->|\"Valid\"| E`" + `.
7. The text of the question should precede the flowchart and ask the user to interpret it.
`)
	}
	return b.String()
}
