package service

// ============================================================
// Textos fixos do bot — toda a "geração de linguagem" é template
// ============================================================

const (
	welcomeText = "Olá! Bem-vindo(a) à Tralhotec. Sou Tralhobot, seu assistente virtual. " +
		"Como posso ajudar você hoje? Você pode me perguntar sobre nossos produtos, " +
		"solicitar suporte ou tirar dúvidas gerais."

	defaultReplyText = "Desculpe, não entendi sua pergunta. Pode tentar reformular? " +
		"Você pode perguntar sobre preços, implementação, Microsoft Teams, documentação, contratos ou suporte."

	faqFollowUpText = "\n\nEssa informação foi útil? Posso ajudar com mais alguma pergunta?"

	// Respostas mapeadas por intenção do classificador
	greetingReplyText = "Olá! Como posso ajudar você hoje?"
	priceReplyText    = "Nossos preços variam de acordo com o serviço. Você gostaria de informações sobre algum plano específico?"
	supportIntroText  = "Entendo que você precisa de suporte. Para que eu possa ajudar melhor, poderia descrever o problema que está enfrentando?"
	sdrIntroText      = "Claro! Posso direcionar você para um de nossos especialistas. " +
		"Para começarmos, poderia me dizer seu nome completo e sua função/cargo atual na empresa, por favor?"
	farewellReplyText = "Até logo! Foi um prazer ajudar. Tenha um ótimo dia!"

	// Fallbacks seguros quando uma fase não casa com nenhuma transição
	supportFlowErrorText = "Houve um problema no fluxo de suporte."
	sdrFlowErrorText     = "Houve um problema no fluxo de qualificação."
)

// faqEntry is one ordered keyword→answer pair. A slice (not a map) because
// insertion order is the match priority.
type faqEntry struct {
	keyword string
	answer  string
}

// faqTable is scanned in order; the first keyword contained in the
// lowercased utterance wins.
var faqTable = []faqEntry{
	{"preço", "Nossos preços variam dependendo da solução e do escopo do projeto. Para obter um orçamento personalizado, por favor, agende uma conversa com um de nossos especialistas."},
	{"implementação", "Nosso processo de implementação para pequenas empresas geralmente inclui: 1. Análise de requisitos, 2. Configuração da plataforma, 3. Migração de dados (se aplicável), 4. Treinamento, 5. Suporte pós-implementação. Podemos detalhar isso em uma reunião."},
	{"microsoft teams", "Sim, somos especialistas em soluções Microsoft, incluindo a implementação e otimização do Microsoft Teams para colaboração."},
	{"documentação", "Oferecemos soluções para gestão de documentação em nuvem utilizando ferramentas como SharePoint Online, garantindo segurança e acesso facilitado."},
	{"contratos", "Podemos ajudar a otimizar seus processos de criação e gestão de contratos com soluções digitais integradas ao Microsoft 365."},
	{"suporte", "Oferecemos diferentes níveis de suporte técnico para nossas soluções. Se precisar de ajuda, pode descrever seu problema aqui ou abrir um chamado em nosso portal."},
}

// supportSuggestion is one ordered keyword→suggestion pair for the support
// intake step. Order matters: first match wins.
type supportSuggestion struct {
	keyword    string
	suggestion string
}

var supportSuggestions = []supportSuggestion{
	{"acesso", "Verifique se está usando as credenciais corretas ou tente redefinir sua senha. Mais detalhes aqui: [link_redefinir_senha]"},
	{"não consigo", "Poderia detalhar um pouco mais o que você não está conseguindo fazer? Qual sistema ou funcionalidade?"},
	{"problema", "Para problemas gerais, reiniciar o aplicativo ou o computador pode ajudar. Se persistir, por favor, me dê mais detalhes."},
}

// Button values posted back by the SDR yes/no cards.
const (
	valueScheduleMeetingYes = "schedule_meeting_yes"
	valueScheduleMeetingNo  = "schedule_meeting_no"
	valueSendMaterialsYes   = "send_materials_yes"
	valueSendMaterialsNo    = "send_materials_no"
)
