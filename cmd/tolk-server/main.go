// @title Tolk API
// @version 1.0
// @description 访客语言与丹麦语之间的翻译会话服务
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKey
// @in header
// @name x-api-key
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tolk-server-go/internal/bootstrap"
	"tolk-server-go/internal/domain/auth"
	"tolk-server-go/internal/platform/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml when present)")
	tokenSubject := flag.String("token", "", "print a bearer token for the given subject and exit")
	flag.Parse()

	if *tokenSubject != "" {
		if err := printToken(*configPath, *tokenSubject); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "tolk-server: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("[%s] [INFO] [引导] 开始启动 tolk-server %s...\n", time.Now().Format("2006-01-02 15:04:05.000"), version)
	if err := bootstrap.Run(context.Background(), bootstrap.Options{ConfigPath: *configPath, Version: version}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "tolk-server failed: %v\n", err)
		os.Exit(1)
	}
}

func printToken(configPath, subject string) error {
	result, err := config.NewLoader().WithPath(configPath).Load()
	if err != nil {
		return err
	}
	tokens := auth.NewAuthToken(result.Config.Server.JWTSecret)
	if !tokens.Enabled() {
		return fmt.Errorf("server.jwt_secret (JWT_SECRET) is not configured")
	}
	token, err := tokens.GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
