package zhipu

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/MrWong99/voxtalk/pkg/chat"
)

// User-turn placeholders for blank text, and the assistant fallback.
const (
	voiceClipPlaceholder = "请处理这段语音"
	blankUserPlaceholder = "您好，请回答我的问题"
	blankAssistantText   = "好的"
)

// voiceMessage is one message in a glm-4-voice request. Content is either a
// plain string or a []contentPart; Audio references a prior spoken reply by
// id. Exactly one of Content/Audio is populated per message.
type voiceMessage struct {
	Role    string    `json:"role"`
	Content any       `json:"content,omitempty"`
	Audio   *audioRef `json:"audio,omitempty"`
}

type audioRef struct {
	ID string `json:"id"`
}

type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// encodeVoiceTurns projects a conversation into glm-4-voice wire messages.
//
// User turns with an attached clip become a two-part content list: the text
// (or a placeholder when blank) plus the clip, base64-encoded inline. A clip
// that cannot be read aborts the whole encoding so no partial request goes
// out. Spoken assistant turns are referenced by audio id rather than
// re-sending their text; when a spoken turn lost its id (e.g. the turn was
// rebuilt from display state) the tracker's last observed id is substituted,
// but only if some turn in the conversation still carries a concrete id —
// otherwise the tracked id may belong to a cleared exchange and the turn
// falls back to plain text.
func encodeVoiceTurns(turns []chat.Turn, tracker *chat.SessionTracker) ([]voiceMessage, error) {
	hasPriorAudio := false
	for _, t := range turns {
		if t.Role == chat.RoleAssistant && t.AudioID != "" {
			hasPriorAudio = true
			break
		}
	}

	msgs := make([]voiceMessage, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case chat.RoleUser:
			m, err := encodeUserTurn(t)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, m)
		case chat.RoleAssistant:
			msgs = append(msgs, encodeAssistantTurn(t, tracker, hasPriorAudio))
		default:
			msgs = append(msgs, voiceMessage{Role: string(t.Role), Content: t.Content})
		}
	}
	return msgs, nil
}

func encodeUserTurn(t chat.Turn) (voiceMessage, error) {
	if t.AudioFile == "" {
		text := t.Content
		if text == "" {
			text = blankUserPlaceholder
		}
		return voiceMessage{
			Role:    string(chat.RoleUser),
			Content: []contentPart{{Type: "text", Text: text}},
		}, nil
	}

	clip, err := os.ReadFile(t.AudioFile)
	if err != nil {
		return voiceMessage{}, fmt.Errorf("读取音频文件失败: %v", err)
	}
	text := t.Content
	if text == "" {
		text = voiceClipPlaceholder
	}
	return voiceMessage{
		Role: string(chat.RoleUser),
		Content: []contentPart{
			{Type: "text", Text: text},
			{Type: "input_audio", InputAudio: &inputAudio{
				Data:   base64.StdEncoding.EncodeToString(clip),
				Format: "wav",
			}},
		},
	}, nil
}

func encodeAssistantTurn(t chat.Turn, tracker *chat.SessionTracker, hasPriorAudio bool) voiceMessage {
	id := t.AudioID
	if id != "" {
		tracker.Observe(id)
	} else if hasPriorAudio {
		if last, ok := tracker.Last(); ok {
			id = last
		}
	}
	if id != "" {
		return voiceMessage{Role: string(chat.RoleAssistant), Audio: &audioRef{ID: id}}
	}
	text := t.Content
	if text == "" {
		text = blankAssistantText
	}
	return voiceMessage{Role: string(chat.RoleAssistant), Content: text}
}
