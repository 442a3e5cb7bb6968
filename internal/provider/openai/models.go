package openai

const (
	openAIKey            = "openai"
	openAIBaseURL        = "https://api.openai.com/v1/"
	openAIDefaultModel   = "gpt-4o-mini"
	groqKey              = "groq"
	groqBaseURL          = "https://api.groq.com/openai/v1/"
	groqDefaultModel     = "llama-3.3-70b-versatile"
	apiKeyOptionTemplate = "%s_api_key"
)

// variant describes one OpenAI-compatible API.
type variant struct {
	key            string
	label          string
	baseURL        string
	defaultModel   string
	knownModels    []string
	responseFormat bool
}

func openAIVariant() variant {
	return variant{
		key:          openAIKey,
		label:        "OpenAI",
		baseURL:      openAIBaseURL,
		defaultModel: openAIDefaultModel,
		knownModels: []string{
			"gpt-4o-mini",
			"gpt-4o",
			"gpt-4.1-mini",
			"gpt-4.1",
		},
		responseFormat: true,
	}
}

// Groq accepts json_schema only on a few models, so prompts carry instructions instead.
func groqVariant() variant {
	return variant{
		key:          groqKey,
		label:        "Groq",
		baseURL:      groqBaseURL,
		defaultModel: groqDefaultModel,
		knownModels: []string{
			"llama-3.3-70b-versatile",
			"llama-3.1-8b-instant",
			"openai/gpt-oss-120b",
			"openai/gpt-oss-20b",
		},
		responseFormat: false,
	}
}
