package prompt

// System is the system message sent with every code-generation request.
const System = "You are an expert software developer. Your task is to generate code that fulfills ticket requirements."

// GenerationTemplate is the built-in prompt for turning a ticket into code.
// Projects override it by committing .ticketsmith/prompt.md.
const GenerationTemplate = `Generate code for the following ticket:

Ticket Summary: {{summary}}

Description:
{{description}}

{{#if acceptance_criteria}}Acceptance Criteria:
{{acceptance_criteria}}

{{/if}}{{#if project_kind}}Project Type: {{project_kind}}

{{/if}}Existing Repository Structure:
{{repo_structure}}

Please generate the necessary code files to fulfill all acceptance criteria.
Return your response as a structured format where each file is clearly marked with:
FILE: <file_path>
CONTENT:
<file_content>
END_FILE

Generate all necessary files including:
- Source code files
- Test files
- Configuration files if needed
- Documentation if required

Ensure the code is:
- Well-structured and follows best practices
- Includes proper error handling
- Has appropriate comments
- Is production-ready
- Follows the existing code style if applicable`
