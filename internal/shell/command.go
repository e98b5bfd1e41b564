package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MrWong99/voxtalk/internal/config"
)

const (
	providerZhipu    = "zhipu"
	providerDeepseek = "deepseek"
)

type modelSpec struct {
	provider string
	voice    bool
}

// models maps selectable model names to their provider and capabilities.
var models = map[string]modelSpec{
	"glm-4":          {provider: providerZhipu},
	"glm-3-turbo":    {provider: providerZhipu},
	"glm-4-voice":    {provider: providerZhipu, voice: true},
	"deepseek-chat":  {provider: providerDeepseek},
	"deepseek-coder": {provider: providerDeepseek},
}

const helpText = `命令:
  /model <name>          切换模型 (/models 查看可选项)
  /models                列出可用模型
  /voice in|out on|off   开关语音输入/输出
  /record                开始或停止录音
  /upload <path>         读取文件内容到输入
  /key zhipu|deepseek <key>  设置API密钥
  /save                  保存配置
  /clear                 清空对话
  /help                  显示本帮助
  /quit                  退出`

// handleCommand executes one slash command. Returns true when the shell
// should exit.
func (s *Shell) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, infoStyle.Render(helpText))
	case "/models":
		s.listModels()
	case "/model":
		if len(args) != 1 {
			fmt.Fprintln(s.out, errorStyle.Render("用法: /model <name>"))
			break
		}
		s.switchModel(args[0])
	case "/voice":
		if len(args) != 2 {
			fmt.Fprintln(s.out, errorStyle.Render("用法: /voice in|out on|off"))
			break
		}
		s.setVoiceToggle(args[0], args[1])
	case "/record":
		s.toggleRecording(ctx)
	case "/upload":
		if len(args) != 1 {
			fmt.Fprintln(s.out, errorStyle.Render("用法: /upload <path>"))
			break
		}
		s.loadDocument(args[0])
	case "/clear":
		s.clearConversation()
	case "/key":
		if len(args) != 2 {
			fmt.Fprintln(s.out, errorStyle.Render("用法: /key zhipu|deepseek <key>"))
			break
		}
		s.setAPIKey(args[0], args[1])
	case "/save":
		s.saveConfig()
	default:
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("未知命令: %s (/help 查看命令)", cmd)))
	}
	return false
}

func (s *Shell) listModels() {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		marker := "  "
		if name == s.cfg.Model {
			marker = "* "
		}
		note := ""
		if models[name].voice {
			note = " (语音)"
		}
		fmt.Fprintln(s.out, infoStyle.Render(marker+name+note))
	}
}

// switchModel selects a model and routes it to its provider. Selecting the
// voice model also enables both voice toggles.
func (s *Shell) switchModel(name string) {
	spec, ok := models[name]
	if !ok {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("未知模型: %s", name)))
		return
	}
	s.cfg.Model = name
	// A clip recorded for the previous model must not attach to a later
	// message under the new one.
	s.mu.Lock()
	s.pendingClip = ""
	s.mu.Unlock()
	switch spec.provider {
	case providerDeepseek:
		s.deepseek.SetModel(name)
	default:
		s.zhipu.SetModel(name)
	}
	if spec.voice {
		s.cfg.VoiceInput = true
		s.cfg.VoiceOutput = true
	}
	fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("已切换到 %s", name)))
}

func (s *Shell) setVoiceToggle(which, state string) {
	on := state == "on"
	if !on && state != "off" {
		fmt.Fprintln(s.out, errorStyle.Render("用法: /voice in|out on|off"))
		return
	}
	switch which {
	case "in":
		s.cfg.VoiceInput = on
	case "out":
		s.cfg.VoiceOutput = on
	default:
		fmt.Fprintln(s.out, errorStyle.Render("用法: /voice in|out on|off"))
		return
	}
	fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("语音%s: %s", map[string]string{"in": "输入", "out": "输出"}[which], state)))
}

func (s *Shell) setAPIKey(provider, key string) {
	switch provider {
	case providerZhipu:
		s.cfg.ZhipuAPIKey = key
		s.zhipu.SetAPIKey(key)
	case providerDeepseek:
		s.cfg.DeepseekAPIKey = key
		s.deepseek.SetAPIKey(key)
	default:
		fmt.Fprintln(s.out, errorStyle.Render("用法: /key zhipu|deepseek <key>"))
		return
	}
	fmt.Fprintln(s.out, infoStyle.Render(fmt.Sprintf("已设置 %s API密钥 (/save 持久化)", provider)))
}

func (s *Shell) saveConfig() {
	if err := config.Save(s.cfg, s.cfgPath); err != nil {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("保存配置失败: %v", err)))
		return
	}
	fmt.Fprintln(s.out, infoStyle.Render("配置已保存"))
}
