package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/jisjis-ai/telbotfun/internal/session"
)

// Callback data values routed by handleCallback.
const (
	cbCheckMembership = "check_membership"
	cbMainMenu        = "main_menu"
	cbCheckBalance    = "check_balance"
	cbMyInvites       = "my_invites"
	cbGenerateMines   = "generate_mines"
	cbGenerateAviator = "generate_aviator"
	cbRedeemGift      = "redeem_giftcard"
	cbGiftHistory     = "giftcard_history"
	cbRegisterChannel = "register_channel"
	cbWantOwnBot      = "want_own_bot"
	cbPrivacyPolicy   = "privacy_policy"

	cbAdminUsers       = "admin_users"
	cbAdminOperations  = "admin_operations"
	cbToggleMines      = "toggle_mines"
	cbToggleAviator    = "toggle_aviator"
	cbCreateGift       = "create_giftcard"
	cbBroadcastUsers   = "broadcast_users"
	cbBroadcastChannel = "broadcast_channel"
)

func joinKeyboard(channelLink string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📢 Entrar no canal", URL: channelLink}},
			{{Text: "✅ Já entrei", CallbackData: cbCheckMembership}},
		},
	}
}

func mainMenuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💣 Sinal Mines", CallbackData: cbGenerateMines},
				{Text: "✈️ Sinal Aviator", CallbackData: cbGenerateAviator},
			},
			{
				{Text: "💰 Meus créditos", CallbackData: cbCheckBalance},
				{Text: "👥 Meus convites", CallbackData: cbMyInvites},
			},
			{
				{Text: "🎁 Resgatar gift card", CallbackData: cbRedeemGift},
				{Text: "📜 Histórico", CallbackData: cbGiftHistory},
			},
			{
				{Text: "📢 Registrar meu canal", CallbackData: cbRegisterChannel},
			},
			{
				{Text: "🤖 Quero meu próprio bot", CallbackData: cbWantOwnBot},
				{Text: "🔐 Privacidade", CallbackData: cbPrivacyPolicy},
			},
		},
	}
}

func registerURLKeyboard(registerURL string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📝 Criar conta", URL: registerURL}},
		},
	}
}

func depositURLKeyboard(depositURL string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "💵 Fazer depósito", URL: depositURL}},
		},
	}
}

func backKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⬅️ Menu principal", CallbackData: cbMainMenu}},
		},
	}
}

func adminKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "👤 Usuários", CallbackData: cbAdminUsers},
				{Text: "🎮 Operações", CallbackData: cbAdminOperations},
			},
			{
				{Text: "🎁 Criar gift card", CallbackData: cbCreateGift},
			},
			{
				{Text: "📣 Broadcast usuários", CallbackData: cbBroadcastUsers},
				{Text: "📣 Broadcast canais", CallbackData: cbBroadcastChannel},
			},
		},
	}
}

func operationsKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💣 Alternar Mines", CallbackData: cbToggleMines},
				{Text: "✈️ Alternar Aviator", CallbackData: cbToggleAviator},
			},
		},
	}
}

func buttonDecisionKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "➕ Adicionar botão", CallbackData: session.CallbackAddButton},
				{Text: "➡️ Sem botão", CallbackData: session.CallbackNoButton},
			},
		},
	}
}

func confirmBroadcastKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Enviar", CallbackData: session.CallbackConfirmSend},
				{Text: "🚫 Cancelar", CallbackData: session.CallbackCancelBroadcast},
			},
		},
	}
}

func broadcastButtonKeyboard(draft session.Draft) *models.InlineKeyboardMarkup {
	if draft.ButtonText == "" || draft.ButtonURL == "" {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: draft.ButtonText, URL: draft.ButtonURL}},
		},
	}
}
