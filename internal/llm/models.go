package llm

// Model - модель, доступная для выбора пользователем
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Tier     string `json:"tier"`
}

const DefaultModel = "z-ai/glm-4.5-air:free"

var availableModels = []Model{
	{ID: "z-ai/glm-4.5-air:free", Name: "GLM-4.5 Air", Provider: "Z-AI", Tier: "free"},
	{ID: "alibaba/tongyi-deepresearch-30b-a3b:free", Name: "Tongyi DeepResearch 30B", Provider: "Alibaba", Tier: "free"},
	{ID: "meituan/longcat-flash-chat:free", Name: "LongCat Flash Chat", Provider: "Meituan", Tier: "free"},
	{ID: "nvidia/nemotron-nano-9b-v2:free", Name: "Nemotron Nano 9B v2", Provider: "NVIDIA", Tier: "free"},
	{ID: "openai/gpt-oss-20b:free", Name: "GPT-OSS 20B", Provider: "OpenAI", Tier: "free"},
	{ID: "moonshotai/kimi-k2:free", Name: "Kimi K2", Provider: "Moonshot AI", Tier: "free"},
	{ID: "qwen/qwen3-coder:free", Name: "Qwen3 Coder", Provider: "Qwen", Tier: "free"},
	{ID: "cognitivecomputations/dolphin-mistral-24b-venice-edition:free", Name: "Dolphin Mistral 24B", Provider: "Cognitive Computations", Tier: "free"},
	{ID: "google/gemma-3n-e2b-it:free", Name: "Gemma 3N E2B IT", Provider: "Google", Tier: "free"},
	{ID: "mistralai/mistral-small-3.2-24b-instruct:free", Name: "Mistral Small 3.2 24B", Provider: "Mistral AI", Tier: "free"},
	{ID: "mistralai/devstral-small-2505:free", Name: "Devstral Small 2505", Provider: "Mistral AI", Tier: "free"},
	{ID: "meta-llama/llama-3.3-8b-instruct:free", Name: "Llama 3.3 8B", Provider: "Meta", Tier: "free"},
	{ID: "qwen/qwen3-4b:free", Name: "Qwen3 4B", Provider: "Qwen", Tier: "free"},
	{ID: "meta-llama/llama-4-maverick:free", Name: "Llama 4 Maverick", Provider: "Meta", Tier: "free"},
	{ID: "meta-llama/llama-4-scout:free", Name: "Llama 4 Scout", Provider: "Meta", Tier: "free"},
	{ID: "deepseek/deepseek-chat-v3-0324:free", Name: "DeepSeek Chat V3", Provider: "DeepSeek", Tier: "free"},
}

func AvailableModels() []Model {
	out := make([]Model, len(availableModels))
	copy(out, availableModels)
	return out
}

func IsAvailableModel(id string) bool {
	_, ok := FindModel(id)
	return ok
}

func FindModel(id string) (Model, bool) {
	for _, m := range availableModels {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
