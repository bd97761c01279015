// Command seed fills a running shelfdesk deployment with a starter
// catalog, going through the client bindings so every record passes the
// same validation as a real consumer.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"shelfdesk/internal/auth"
	"shelfdesk/internal/bookclient"
	"shelfdesk/internal/books"
)

var catalog = []books.CreateBookInput{
	{Title: "活着", Author: "余华", ISBN: "9787506365437", Category: "文学小说", Status: "available"},
	{Title: "三体", Author: "刘慈欣", ISBN: "9787536692930", Category: "科幻小说", Status: "available"},
	{Title: "百年孤独", Author: "加西亚·马尔克斯", ISBN: "9787544253994", Category: "文学小说", Status: "borrowed"},
	{Title: "1984", Author: "乔治·奥威尔", ISBN: "9787530210291", Category: "文学小说", Status: "available"},
	{Title: "红楼梦", Author: "曹雪芹", ISBN: "9787020002207", Category: "古典文学", Status: "available"},
	{Title: "JavaScript权威指南", Author: "David Flanagan", ISBN: "9787111376613", Category: "技术", Status: "available"},
	{Title: "人类简史", Author: "尤瓦尔·赫拉利", ISBN: "9787508647357", Category: "历史", Status: "borrowed"},
	{Title: "平凡的世界", Author: "路遥", ISBN: "9787530216781", Category: "文学小说", Status: "available"},
	{Title: "围城", Author: "钱钟书", ISBN: "9787020090006", Category: "文学小说", Status: "maintenance"},
	{Title: "黑客与画家", Author: "Paul Graham", ISBN: "9787115249494", Category: "技术", Status: "available"},
	{Title: "小王子", Author: "安托万·德·圣-埃克苏佩里", ISBN: "9787020042494", Category: "儿童文学", Status: "available"},
	{Title: "解忧杂货店", Author: "东野圭吾", ISBN: "9787544270878", Category: "文学小说", Status: "borrowed"},
	{Title: "设计模式", Author: "Erich Gamma", ISBN: "9787111075752", Category: "技术", Status: "available"},
	{Title: "追风筝的人", Author: "卡勒德·胡赛尼", ISBN: "9787208061644", Category: "文学小说", Status: "available"},
	{Title: "白夜行", Author: "东野圭吾", ISBN: "9787544258609", Category: "推理小说", Status: "available"},
	{Title: "苏菲的世界", Author: "乔斯坦·贾德", ISBN: "9787506342346", Category: "哲学", Status: "available"},
}

func main() {
	log := logrus.New()

	apiURL := envOr("API_URL", "http://localhost:8080")
	email := envOr("SEED_EMAIL", "seed@shelfdesk.dev")
	password := envOr("SEED_PASSWORD", "seed-password")

	client := bookclient.NewClient(apiURL,
		bookclient.WithNotifier(bookclient.LogNotifier{Log: log}),
	)
	ctx := context.Background()

	// First run registers the seeding account; later runs just log in.
	_, err := client.Register(ctx, auth.RegisterInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		FullName:        "Catalog Seeder",
	})
	if err != nil {
		log.WithError(err).Info("Registration skipped, trying login")
	}

	if _, err := client.Login(ctx, auth.LoginInput{Email: email, Password: password}); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	created := 0
	for _, in := range catalog {
		if _, err := client.CreateBook(ctx, in); err != nil {
			log.WithError(err).WithField("title", in.Title).Warn("Skipping book")
			continue
		}
		created++
	}

	log.WithField("created", created).Info("Seeding complete")
}

func envOr(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
