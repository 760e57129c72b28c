// Command chat is an interactive terminal client that talks to the
// conversation service directly, bypassing HTTP and auth.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"pawfect/internal/config"
	"pawfect/internal/domain/models"
	"pawfect/internal/domain/services"
	"pawfect/internal/repository"
	"pawfect/internal/service/conversation"
	"pawfect/internal/service/llm/providers/openai"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	ctx     context.Context
	service services.ConversationService
	scanner *bufio.Scanner
	ownerID string
	logger  *slog.Logger
}

func main() {
	ownerID := flag.String("owner", os.Getenv("CHAT_OWNER_ID"), "Owner id to chat as")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if *ownerID == "" {
		fail("an owner id is required (-owner or CHAT_OWNER_ID)")
	}

	// Logs go to a file so they don't interleave with the conversation
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = "logs"
	}
	logFile, err := config.SetupLogFile(logDir, cfg.LogMaxFiles)
	if err != nil {
		fail("failed to set up log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := context.Background()

	systemPrompt, err := cfg.LoadSystemPrompt()
	if err != nil {
		fail("failed to load system prompt: %v", err)
	}

	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		fail("failed to open conversation store: %v", err)
	}
	defer closeStore()

	gateway, err := openai.NewClient(openai.Config{
		Endpoint:     cfg.LLMAPIURL,
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		SystemPrompt: systemPrompt,
		Timeout:      cfg.LLMTimeout,
	}, logger)
	if err != nil {
		fail("failed to create LLM client: %v", err)
	}

	cli := &CLI{
		ctx:     ctx,
		service: conversation.NewService(store, gateway, logger),
		scanner: bufio.NewScanner(os.Stdin),
		ownerID: *ownerID,
		logger:  logger,
	}
	logger.Info("session started", "owner_id", *ownerID, "log_file", logFile.Name())
	cli.run()
}

func fail(format string, args ...any) {
	fmt.Printf("%s%s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}

func (cli *CLI) run() {
	fmt.Printf("\n%sPawfect chat%s  %s(owner: %s)%s\n", colorCyan, colorReset, colorBlue, cli.ownerID, colorReset)

	for {
		fmt.Println("\n" + strings.Repeat("─", 40))
		fmt.Println("1. Start a new conversation")
		fmt.Println("2. List conversations")
		fmt.Println("3. Continue a conversation")
		fmt.Println("4. Delete a conversation")
		fmt.Println("5. Exit")
		fmt.Print("\nSelect option (1-5): ")

		choice, ok := cli.readLine()
		if !ok {
			return
		}
		fmt.Println()

		switch choice {
		case "1":
			cli.chatLoop(nil, nil)
		case "2":
			cli.listConversations()
		case "3":
			if conv := cli.pickConversation(); conv != nil {
				cli.printHistory(conv)
				id := conv.ID
				cli.chatLoop(&id, conv.Messages)
			}
		case "4":
			cli.deleteConversation()
		case "5":
			fmt.Printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return
		default:
			fmt.Printf("%sInvalid option%s\n", colorYellow, colorReset)
		}
	}
}

// chatLoop sends turns until the user enters an empty line. history is the
// transcript so far; it is echoed back on every call.
func (cli *CLI) chatLoop(conversationID *string, history []models.ChatMessage) {
	fmt.Printf("%sType a message (empty line to go back)%s\n", colorBlue, colorReset)

	for {
		fmt.Print("\nyou> ")
		text, ok := cli.readLine()
		if !ok || text == "" {
			return
		}

		history = append(history, models.ChatMessage{Role: models.RoleUser, Content: text})
		resp, err := cli.service.SendMessage(cli.ctx, &services.SendMessageRequest{
			ConversationID: conversationID,
			Messages:       history,
		}, cli.ownerID)
		if err != nil {
			// The user turn is already stored; drop it locally so a retry is not duplicated in the prompt
			history = history[:len(history)-1]
			cli.logger.Error("send failed", "error", err)
			fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
			continue
		}

		if conversationID == nil {
			id := resp.ConversationID
			conversationID = &id
			fmt.Printf("%s(conversation %s)%s\n", colorBlue, id, colorReset)
		}
		history = append(history, models.ChatMessage{Role: models.RoleAssistant, Content: resp.Message})
		fmt.Printf("%spawfect>%s %s\n", colorGreen, colorReset, resp.Message)
	}
}

func (cli *CLI) listConversations() []models.ConversationSummary {
	conversations, err := cli.service.ListConversations(cli.ctx, cli.ownerID)
	if err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return nil
	}
	if len(conversations) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}
	for i, c := range conversations {
		fmt.Printf("%2d. %s %s(%s)%s\n", i+1, c.Title, colorBlue, c.UpdatedAt.Local().Format("2006-01-02 15:04"), colorReset)
	}
	return conversations
}

func (cli *CLI) pickConversation() *models.ConversationDetail {
	conversations := cli.listConversations()
	if len(conversations) == 0 {
		return nil
	}

	fmt.Print("\nNumber: ")
	text, ok := cli.readLine()
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(conversations) {
		fmt.Printf("%sInvalid selection%s\n", colorYellow, colorReset)
		return nil
	}

	conv, err := cli.service.GetConversation(cli.ctx, conversations[n-1].ID, cli.ownerID)
	if err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return nil
	}
	return conv
}

func (cli *CLI) printHistory(conv *models.ConversationDetail) {
	fmt.Printf("\n%s%s%s\n", colorCyan, conv.Title, colorReset)
	for _, m := range conv.Messages {
		if m.Role == models.RoleUser {
			fmt.Printf("you> %s\n", m.Content)
		} else {
			fmt.Printf("%spawfect>%s %s\n", colorGreen, colorReset, m.Content)
		}
	}
}

func (cli *CLI) deleteConversation() {
	conv := cli.pickConversation()
	if conv == nil {
		return
	}
	if err := cli.service.DeleteConversation(cli.ctx, conv.ID, cli.ownerID); err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Printf("%sDeleted %q%s\n", colorGreen, conv.Title, colorReset)
}

func (cli *CLI) readLine() (string, bool) {
	if !cli.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(cli.scanner.Text()), true
}
