package domain

// Principal представляет аутентифицированного пользователя запроса.
// Извлекается из bearer-токена и передаётся явно во все сервисные вызовы.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
	AccessToken string `json:"-"`
}

// CanCreateIn проверяет право создавать узлы в категории: в "Desenhos"
// может любой аутентифицированный пользователь, в остальных только админ.
func (p *Principal) CanCreateIn(category Category) bool {
	return p.IsAdmin || category == CategoryDesenhos
}

// CanModify проверяет право изменять или удалять узел: админ либо создатель.
func (p *Principal) CanModify(node *Node) bool {
	return p.IsAdmin || node.CreatedByID == p.ID
}
