package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/queue"
	"github.com/wneessen/go-mail"
)

// rawMailMessage 先保留 data 的原始内容，再根据 type 解析成具体的结构
type rawMailMessage struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

var generationStatusNames = map[domain.GenerationStatus]string{
	domain.GenerationStatusGenerated: "排课完成",
	domain.GenerationStatusCancelled: "已取消",
	domain.GenerationStatusFailed:    "排课失败",
}

// buildMail 根据邮件类型选择模板并渲染正文
func buildMail(m *mail.Msg, message rawMailMessage) error {
	var (
		templatePath string
		subject      string
		data         any
	)

	switch message.Type {
	case domain.MailTypeCreateUser:
		d := domain.CreateUserMailData{}
		if err := json.Unmarshal(message.Data, &d); err != nil {
			return err
		}
		templatePath = "./templates/new_account_email.html"
		subject = "排课系统 - 账户信息"
		data = d
	case domain.MailTypeGenerationFinished:
		d := domain.GenerationFinishedMailData{}
		if err := json.Unmarshal(message.Data, &d); err != nil {
			return err
		}
		templatePath = "./templates/generation_finished_email.html"
		subject = fmt.Sprintf("排课系统 - %s - %s", d.ResourceSetName, generationStatusNames[d.Status])
		data = d
	default:
		return fmt.Errorf("不支持的邮件类型: %s", message.Type)
	}

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return err
	}
	m.Subject(subject)

	return nil
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := queue.DeclareQueues(ch, cfg.RabbitMQ.MailQueue); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		cfg.RabbitMQ.MailQueue, // 队列
		"",                     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,                  // 是否自动确认消息
		false,                  // 是否独占队列
		false,                  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,                  // 是否不等待，等待 RabbitMQ 响应
		nil,                    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("消息通道已关闭")
					return
				}

				// 对邮件信息反序列化
				mailMessage := rawMailMessage{}
				if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
					logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				// 消息体中可能含有初始密码，只记录类型和收件人
				logger.Info("收到消息", slog.String("type", mailMessage.Type), slog.String("to", mailMessage.To))

				// 构建邮件
				m := mail.NewMsg()
				if err := m.From(cfg.Email.SMTP.Username); err != nil {
					logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := m.To(mailMessage.To); err != nil {
					logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := buildMail(m, mailMessage); err != nil {
					logger.Error("无法构建邮件", slog.String("type", mailMessage.Type), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 发送邮件
				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				// 确认消息
				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	logger.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	logger.Info("mail worker 已成功关闭")
}
