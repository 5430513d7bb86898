package game

// TileState is a serializable representation of one cell.
type TileState struct {
	Position         Position     `json:"position"`
	Construction     Construction `json:"construction"`
	ConstructionName string       `json:"constructionName"`
	Occupied         bool         `json:"occupied"`
	Player           Player       `json:"player"`
	PlayerName       string       `json:"playerName,omitempty"`
}

// GameState is a serializable representation of a game in progress.
type GameState struct {
	Tiles          []TileState `json:"tiles"`
	NextPlayer     Player      `json:"nextPlayer"`
	NextPlayerName string      `json:"nextPlayerName"`
	NextAction     string      `json:"nextAction"`
	Stage          string      `json:"stage"`
	Selectable     PositionSet `json:"selectable"`
	Selected       []Position  `json:"selected"`
	SetupDone      bool        `json:"setupDone"`
	HasWinner      bool        `json:"hasWinner"`
	Winner         Player      `json:"winner"`
	WinnerName     string      `json:"winnerName,omitempty"`
}

// State returns a snapshot of the game suitable for JSON encoding.
func (g *Game) State() GameState {
	state := GameState{
		Tiles:          make([]TileState, 0, BoardSize*BoardSize),
		NextPlayer:     g.board.NextPlayer(),
		NextPlayerName: g.board.NextPlayer().String(),
		NextAction:     g.NextAction(),
		Stage:          g.current.Stage.String(),
		Selectable:     g.selectable,
		Selected:       g.Selected(),
		SetupDone:      g.board.SetupDone(),
	}
	if winner, ok := g.Winner(); ok {
		state.HasWinner = true
		state.Winner = winner
		state.WinnerName = winner.String()
	}
	for p, tile := range g.board.Tiles() {
		ts := TileState{
			Position:         p,
			Construction:     tile.Construction,
			ConstructionName: tile.Construction.String(),
			Occupied:         tile.Occupied,
			Player:           tile.Player,
		}
		if tile.Occupied {
			ts.PlayerName = tile.Player.String()
		}
		state.Tiles = append(state.Tiles, ts)
	}
	return state
}
