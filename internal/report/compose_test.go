package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telereport/internal/collect"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain 中文 text", "plain 中文 text"},
		{`<b>"Tom" & 'Jerry'</b>`, "&lt;b&gt;&quot;Tom&quot; &amp; &#x27;Jerry&#x27;&lt;/b&gt;"},
		{"&amp;", "&amp;amp;"},
		{"「」—— /\\`", "「」—— /\\`"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), "Escape(%q)", tt.in)
	}
}

func TestYear(t *testing.T) {
	assert.Equal(t, 2024, Year(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2023, Year(time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 2023, Year(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, Year(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want string
	}{
		{"username wins", Identity{Username: "alice", FirstName: "Alice", LastName: "L"}, "@alice"},
		{"first and last", Identity{FirstName: "Alice", LastName: "Liddell"}, "Alice Liddell"},
		{"first only", Identity{FirstName: "Alice"}, "Alice"},
		{"last only is unknown", Identity{LastName: "Liddell"}, UnknownUser},
		{"nothing", Identity{}, UnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.DisplayName())
		})
	}
}

func TestModerationLine_Threshold(t *testing.T) {
	assert.Equal(t, cleanAccountLine, ModerationLine(0))
	assert.Equal(t, cleanAccountLine, ModerationLine(19))
	assert.Equal(t, lessSpamLine, ModerationLine(20))
	assert.Equal(t, lessSpamLine, ModerationLine(500))
}

func sampleInput() Input {
	return Input{
		Identity:   Identity{Username: "alice"},
		Year:       2024,
		HostName:   "TeleBox",
		TenureDays: 42,
		Extensions: 7,
		Chats:      collect.Composition{Private: 10, Groups: 3, Bots: 1, Channels: 2},
		Blocked:    0,
		Quote:      `"X" —— Y`,
	}
}

func TestCompose_Golden(t *testing.T) {
	want := `<b>@alice 的 2024 年度报告</b>

📅 <b>陪伴时光</b>
TeleBox 已陪伴你的 TG 42 天
安装了 7 个插件，为你的使用体验增光添彩

👥 <b>社交网络</b>
你邂逅了 2 个频道，3 个群组
遇见了 10 个有趣的灵魂，使用了 1 个机器人
愿你的生活每天都像庆典一样开心

🛡️ <b>安全守护</b>
你的黑名单里有 0 人
你的账户真的很干净

💫 <b>年度寄语</b>
"X" —— Y

<code>#2024年度报告</code>`

	assert.Equal(t, want, Compose(sampleInput()))
}

func TestCompose_PremiumSection(t *testing.T) {
	in := sampleInput()
	in.Identity.Premium = true
	in.Blocked = 20

	got := Compose(in)
	assert.Contains(t, got, "你的黑名单里有 20 人\n愿明年的spam少一些\n\n⭐ <b>会员特权</b>\n"+premiumLine+"\n\n💫 <b>年度寄语</b>")

	plain := Compose(sampleInput())
	assert.NotContains(t, plain, "会员特权")
	assert.Equal(t, strings.Count(got, "\n")-3, strings.Count(plain, "\n"))
}

func TestCompose_EscapesInterpolatedText(t *testing.T) {
	in := sampleInput()
	in.Identity = Identity{FirstName: "<script>", LastName: "&co"}
	in.HostName = "Box's"

	got := Compose(in)
	assert.True(t, strings.HasPrefix(got, "<b>&lt;script&gt; &amp;co 的 2024 年度报告</b>"))
	assert.Contains(t, got, "Box&#x27;s 已陪伴你的 TG")
}

func TestCompose_IsDeterministic(t *testing.T) {
	in := sampleInput()
	assert.Equal(t, Compose(in), Compose(in))
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "❌ <b>生成报告失败:</b> rpc &lt;timeout&gt;", FailureText(errors.New("rpc <timeout>")))
	assert.Equal(t, "❌ <b>生成报告失败:</b> 未知错误", FailureText(nil))
	assert.Equal(t, "❌ <b>生成报告失败:</b> 未知错误", FailureText(errors.New("")))
}
