package scenes

import "karlselfie/internal/domain"

var builtin = []domain.Scene{
	{ID: 1, Emoji: "🍕", ShortTitle: "Pizza-Götter im Weltall", FullPrompt: "Der Nutzer und Karl der Kasten sitzen als riesige Götter auf einer schwimmenden Pizza im Weltall und streiten sich darum, ob Ananas darauf gehört, während Astronauten weinen."},
	{ID: 2, Emoji: "☕", ShortTitle: "Barista & Latte-Art-Drache", FullPrompt: "Karl der Kasten ist ein grimmiger Barista in einem surrealen Café, während der Nutzer als Latte Art in Form eines Drachen aus der Kaffeetasse aufsteigt."},
	{ID: 3, Emoji: "🌵", ShortTitle: "Cyberpunk-Wüste reiten", FullPrompt: "Der Nutzer reitet auf Karl dem Kasten wie auf einem störrischen Holzpferd durch eine neonfarbene Cyberpunk-Wüste voller tanzender Kakteen."},
	{ID: 4, Emoji: "♟️", ShortTitle: "Schach mit Mini-Versionen", FullPrompt: "Karl der Kasten und der Nutzer spielen Schach, aber die Figuren sind kleine Versionen von ihnen selbst, die panisch vom Brett fliehen."},
	{ID: 5, Emoji: "🦆", ShortTitle: "Gummientenregen im Smoking", FullPrompt: "Der Nutzer und Karl der Kasten stehen im Regen aus Gummienten, tragen Smoking, und diskutieren ernsthaft über Quantenphysik."},
	{ID: 6, Emoji: "🍣", ShortTitle: "Sushi-Meister", FullPrompt: "Karl der Kasten ist ein grimmiger Sushi-Meister, während der Nutzer verzweifelt versucht, sich nicht selbst als Sushi rollen zu lassen."},
	{ID: 7, Emoji: "📺", ShortTitle: "TV-News: Bananen-Untergang", FullPrompt: "Der Nutzer und Karl der Kasten sind Nachrichtensprecher in einer absurden TV-Show, die live über den Untergang einer Banane berichten."},
	{ID: 8, Emoji: "🏛️", ShortTitle: "Tempel mit Popcorn-Opfergaben", FullPrompt: "Karl der Kasten als antiker Tempel, in dessen Innerem der Nutzer auf Rollschuhen Opfergaben aus Popcorn verteilt."},
	{ID: 9, Emoji: "🛁", ShortTitle: "Badewanne voller Sterne", FullPrompt: "Der Nutzer und Karl der Kasten sitzen in einer Badewanne voller Sterne, planschen mit Galaxien und tragen lächerlich kleine Badehüte."},
	{ID: 10, Emoji: "🎧", ShortTitle: "DJ & Tänzer auf Holz", FullPrompt: "Karl der Kasten ist ein grimmiger DJ, der Nutzer ein hyperaktiver Tänzer, während der Dancefloor aus wackelndem Holz besteht."},
	{ID: 11, Emoji: "🏓", ShortTitle: "Tischtennis mit schreiendem Ei", FullPrompt: "Der Nutzer spielt Tischtennis gegen Karl den Kasten, aber der Ball ist ein schreiendes Ei und das Netz besteht aus Spaghetti."},
	{ID: 12, Emoji: "⚔️", ShortTitle: "Ritter auf Staubsaugern", FullPrompt: "Karl der Kasten und der Nutzer sind mittelalterliche Ritter, die auf Staubsaugern in die Schlacht ziehen."},
	{ID: 13, Emoji: "🧘", ShortTitle: "Mönche auf Legoberg", FullPrompt: "Der Nutzer und Karl der Kasten sitzen als philosophierende Mönche auf einem Berg aus Legosteinen."},
	{ID: 14, Emoji: "👶", ShortTitle: "Babysitter & Business-Baby", FullPrompt: "Karl der Kasten als grimmiger Babysitter, der Nutzer ein riesiges Baby mit Anzug und Aktentasche."},
	{ID: 15, Emoji: "🍉", ShortTitle: "Japanische Gameshow", FullPrompt: "Der Nutzer und Karl der Kasten in einer japanischen Gameshow, in der sie versuchen, einer riesigen rollenden Wassermelone zu entkommen."},
	{ID: 16, Emoji: "🧊", ShortTitle: "Gedicht für den Kühlschrank", FullPrompt: "Karl der Kasten ist ein lebendiger Kühlschrank, der Nutzer versucht verzweifelt, ihm ein Gedicht vorzulesen."},
	{ID: 17, Emoji: "🕵️", ShortTitle: "Film Noir Detektive", FullPrompt: "Der Nutzer und Karl der Kasten als Detektive in einem Film Noir, aber alles besteht aus Holz und Nebel."},
	{ID: 18, Emoji: "😇", ShortTitle: "Engel vs Teufel auf Toast", FullPrompt: "Karl der Kasten als grimmiger Engel, der Nutzer als chaotischer Teufel auf einem Wolkenkratzer aus Toastbrot."},
	{ID: 19, Emoji: "🏐", ShortTitle: "Beachvolleyball auf Zuckerwatte", FullPrompt: "Der Nutzer und Karl der Kasten spielen Beachvolleyball auf einem Strand aus Zuckerwatte, während Haie applaudieren."},
	{ID: 20, Emoji: "🌵", ShortTitle: "Bewerbung beim Kaktus-Chef", FullPrompt: "Karl der Kasten und der Nutzer sitzen in einem absurden Bewerbungsgespräch – der Chef ist ein sprechender Kaktus."},
}
