package main

import (
	"flag"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/werewolf/internal/client"
	"github.com/palemoky/werewolf/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:1780", "沙盒服务器地址")
	userID := flag.String("user", os.Getenv("USER"), "用户 ID")
	name := flag.String("name", "", "显示名，默认与用户 ID 相同")
	flag.Parse()

	if *userID == "" {
		log.Fatal("缺少 -user 参数")
	}

	model := ui.NewModel(client.BuildURL(*serverAddr, *userID, *name))

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
