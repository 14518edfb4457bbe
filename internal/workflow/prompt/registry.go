package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptChapterGenV1      PromptID = "chapter_gen_v1"
	PromptOutlineGenV1      PromptID = "outline_gen_v1"
	PromptOutlineContinueV1 PromptID = "outline_continue_v1"
	PromptWorldbuildingV1   PromptID = "worldbuilding_v1"
	PromptCharactersV1      PromptID = "characters_v1"
	PromptPolishV1          PromptID = "polish_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptChapterGenV1:
		return "templates/chapter_gen_v1.system.txt", "templates/chapter_gen_v1.user.txt", nil
	case PromptOutlineGenV1:
		return "templates/outline_gen_v1.system.txt", "templates/outline_gen_v1.user.txt", nil
	case PromptOutlineContinueV1:
		return "templates/outline_continue_v1.system.txt", "templates/outline_continue_v1.user.txt", nil
	case PromptWorldbuildingV1:
		return "templates/worldbuilding_v1.system.txt", "templates/worldbuilding_v1.user.txt", nil
	case PromptCharactersV1:
		return "templates/characters_v1.system.txt", "templates/characters_v1.user.txt", nil
	case PromptPolishV1:
		return "templates/polish_v1.system.txt", "templates/polish_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
