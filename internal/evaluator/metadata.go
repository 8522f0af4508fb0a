package evaluator

import (
	"strings"

	"github.com/francovalli123/StudyO/internal/model"
)

// localizedText 单语言的标题与描述
type localizedText struct {
	title       string
	description string
}

// challengeMeta 挑战类型的目标值与多语言文案
type challengeMeta struct {
	target float64
	texts  map[string]localizedText // 语言代码 → 文案，"es" 必须存在
}

// metadata 七种挑战的静态元数据
// 文案语言覆盖 es/en/zh/pt，缺失语言回落到 es
var metadata = map[model.WeeklyChallengeType]challengeMeta{
	model.ChallengeMarathonProductivity: {
		target: 20,
		texts: map[string]localizedText{
			"es": {"Maratón de productividad", "Completa 20 sesiones de estudio esta semana"},
			"en": {"Productivity marathon", "Complete 20 study sessions this week"},
			"zh": {"效率马拉松", "本周完成 20 个专注会话"},
			"pt": {"Maratona de produtividade", "Complete 20 sessões de estudo esta semana"},
		},
	},
	model.ChallengeFocusDeepWork: {
		target: 4,
		texts: map[string]localizedText{
			"es": {"Trabajo profundo", "Logra 4 días con al menos 2 sesiones de 50+ minutos"},
			"en": {"Deep work", "Achieve 4 days with at least 2 sessions of 50+ minutes"},
			"zh": {"深度工作", "4 天内每天至少 2 个 50 分钟以上的会话"},
			"pt": {"Trabalho profundo", "Alcance 4 dias com pelo menos 2 sessões de 50+ minutos"},
		},
	},
	model.ChallengeSubjectFocus: {
		target: 10,
		texts: map[string]localizedText{
			"es": {"Enfoque por materia", "Acumula 10 sesiones en una misma materia"},
			"en": {"Subject focus", "Accumulate 10 sessions in a single subject"},
			"zh": {"学科专注", "在同一学科累计 10 个会话"},
			"pt": {"Foco na matéria", "Acumule 10 sessões em uma única matéria"},
		},
	},
	model.ChallengeEarlyStart: {
		target: 5,
		texts: map[string]localizedText{
			"es": {"Comienzo temprano", "Estudia antes de las 10:00 durante 5 días"},
			"en": {"Early start", "Study before 10:00 on 5 days"},
			"zh": {"早起学习", "5 天在本地时间 10:00 前开始学习"},
			"pt": {"Começo cedo", "Estude antes das 10:00 em 5 dias"},
		},
	},
	model.ChallengeStrongFinish: {
		target: 4,
		texts: map[string]localizedText{
			"es": {"Final fuerte", "Estudia después de las 18:00 durante 4 días"},
			"en": {"Strong finish", "Study after 18:00 on 4 days"},
			"zh": {"强势收尾", "4 天在本地时间 18:00 后学习"},
			"pt": {"Final forte", "Estude depois das 18:00 em 4 dias"},
		},
	},
	model.ChallengeQualityOverQuantity: {
		target: 40,
		texts: map[string]localizedText{
			"es": {"Calidad sobre cantidad", "Mantén una duración media de sesión de 40+ minutos"},
			"en": {"Quality over quantity", "Keep an average session length of 40+ minutes"},
			"zh": {"重质不重量", "保持平均会话时长不低于 40 分钟"},
			"pt": {"Qualidade sobre quantidade", "Mantenha uma duração média de sessão de 40+ minutos"},
		},
	},
	model.ChallengeCleanFocus: {
		target: 5,
		texts: map[string]localizedText{
			"es": {"Enfoque limpio", "Logra 5 días sin sesiones menores a 25 minutos"},
			"en": {"Clean focus", "Achieve 5 days without sessions shorter than 25 minutes"},
			"zh": {"纯净专注", "5 天没有短于 25 分钟的碎片会话"},
			"pt": {"Foco limpo", "Alcance 5 dias sem sessões menores que 25 minutos"},
		},
	},
}

// Metadata 取挑战类型在指定语言下的标题与描述
// 语言代码按 "-" 截断（"pt-BR" → "pt"），未覆盖的语言回落到 es
func Metadata(typ model.WeeklyChallengeType, language string) (title, description string) {
	meta, ok := metadata[typ]
	if !ok {
		return string(typ), ""
	}
	lang := strings.ToLower(strings.SplitN(language, "-", 2)[0])
	text, ok := meta.texts[lang]
	if !ok {
		text = meta.texts["es"]
	}
	return text.title, text.description
}
