package telegram

import (
	"fmt"
	"strings"

	"github.com/jisjis-ai/telbotfun/internal/domain"
)

const (
	msgStartup = "🤖 Bot online! Os sinais voltaram, aproveite."

	msgJoinChannel = "🔒 Para usar o bot você precisa entrar no nosso canal oficial.\n\nEntre no canal e toque em \"Já entrei\"."
	msgStillOut    = "❌ Você ainda não está no canal. Entre primeiro e tente de novo."

	msgAskAccountProof = "1️⃣ Crie sua conta na plataforma pelo link abaixo e envie um print (foto) do cadastro concluído."
	msgAskDepositProof = "2️⃣ Agora faça seu primeiro depósito e envie um print (foto) do comprovante."
	msgAskShare        = "3️⃣ Último passo: compartilhe o bot com um amigo e mande qualquer mensagem aqui para liberar seu acesso."
	msgNeedPhoto       = "📷 Preciso de uma foto (print) para continuar. Envie a imagem, por favor."

	msgAskGiftCode     = "🎁 Digite o código do seu gift card:"
	msgInvalidGiftCode = "❌ Código inválido. Confira e tente novamente."
	msgCodeAlreadyUsed = "⚠️ Você já resgatou esse código."

	msgAskGiftValue   = "💳 Qual o valor em créditos do novo gift card?"
	msgInvalidValue   = "❌ Valor inválido. Envie um número inteiro maior que zero."
	msgAskChannelLink = "🔗 Envie o link do seu canal (formato t.me/seucanal). O bot precisa ser administrador do canal."
	msgInvalidLink    = "❌ Link inválido. Envie um link no formato t.me/seucanal."

	msgNoCredits = "😕 Seus créditos acabaram. Convide amigos ou resgate um gift card para continuar."

	msgAskBroadcast   = "📣 Envie o conteúdo da transmissão: um texto, foto, vídeo ou documento."
	msgAskCaption     = "📝 Agora envie a legenda da mídia."
	msgAskButton      = "🔘 Quer adicionar um botão à mensagem?"
	msgAskButtonText  = "✏️ Envie o texto do botão."
	msgAskButtonURL   = "🔗 Envie o link do botão (http:// ou https://)."
	msgBroadcastDone  = "✅ Transmissão enviada."
	msgBroadcastAbort = "🚫 Transmissão cancelada."

	msgPrivacy = "🔐 Política de privacidade: guardamos apenas seu ID do Telegram, nome de usuário e saldo de créditos. Nada é compartilhado com terceiros."

	msgWantOwnBot = "🤝 Quer um bot como este para o seu canal? Fale com o administrador."
)

func msgWelcome(firstName string, credits int) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "jogador"
	}
	return fmt.Sprintf("👋 Bem-vindo, %s!\n\n💰 Seus créditos: %d\n\nEscolha uma opção abaixo:", name, credits)
}

func msgBalance(credits int) string {
	return fmt.Sprintf("💰 Você tem %d créditos.\n\nCada sinal gerado consome 1 crédito.", credits)
}

func msgInvites(invites []domain.Invite, bonus int) string {
	if len(invites) == 0 {
		return "👥 Você ainda não convidou ninguém.\n\nCompartilhe seu link e ganhe créditos por cada amigo!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Você já convidou %d pessoa(s) e ganhou %d créditos:\n", len(invites), len(invites)*bonus)
	for _, inv := range invites {
		fmt.Fprintf(&b, "• %d em %s\n", inv.InvitedID, inv.Date.Format("02/01/2006"))
	}
	return b.String()
}

func msgInviteLink(botUsername string, userID int64) string {
	return fmt.Sprintf("🔗 Seu link de convite:\nhttps://t.me/%s?start=%d", botUsername, userID)
}

func msgGiftHistory(codes []domain.GiftCode) string {
	if len(codes) == 0 {
		return "🎁 Você ainda não resgatou nenhum gift card."
	}

	var b strings.Builder
	b.WriteString("🎁 Gift cards resgatados:\n")
	for _, gc := range codes {
		fmt.Fprintf(&b, "• %s — %d créditos\n", gc.Code, gc.Credits)
	}
	return b.String()
}

func msgGiftRedeemed(credits, balance int) string {
	return fmt.Sprintf("🎉 Código resgatado! Você ganhou %d créditos.\n💰 Saldo atual: %d", credits, balance)
}

func msgGiftCreated(code string, credits int) string {
	return fmt.Sprintf("✅ Gift card criado!\n\nCódigo: <code>%s</code>\nValor: %d créditos", code, credits)
}

func msgOutsideWindow(game string) string {
	if game == domain.GameMines {
		return "⏰ Os sinais de Mines funcionam das 00h às 12h. Volte nesse horário!"
	}
	return "⏰ Os sinais de Aviator funcionam das 12h às 23h. Volte nesse horário!"
}

func msgChannelRegistered(title string, active bool) string {
	if active {
		return fmt.Sprintf("✅ Canal \"%s\" registrado e ativado! Os sinais já serão enviados para ele.", title)
	}
	return fmt.Sprintf("⏳ Canal \"%s\" registrado. Ele será ativado quando atingir o mínimo de membros.", title)
}

func msgAdminPanel(userCount int) string {
	return fmt.Sprintf("🛠 Painel do administrador\n\n👤 Usuários registrados: %d", userCount)
}

func msgOperations(flags []domain.OperationFlag) string {
	var b strings.Builder
	b.WriteString("🎮 Estado das operações:\n")
	for _, f := range flags {
		state := "🔴 inativo"
		if f.Active {
			state = "🟢 ativo"
		}
		fmt.Fprintf(&b, "• %s: %s\n", f.Name, state)
	}
	return b.String()
}
