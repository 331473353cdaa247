package profile

// Built-in prompt templates, used by the environment-derived default
// profile and by llm profiles that leave their templates unset.
const (
	DefaultSystemPromptTemplate = "Your task is to summarize and distill the essential " +
		"information from the output of the command: $command\n\n" +
		"The user message is the raw output of the command, so it may contain " +
		"extraneous information, errors, or formatting artifacts. Extract the " +
		"most relevant and accurate information. Anything written to standard " +
		"error follows here, for context only:\n$stderr"

	DefaultUserPromptTemplate = "$stdout"
)
