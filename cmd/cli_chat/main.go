package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mentor-chat/internal/chat"
	"mentor-chat/internal/chatclient"
	"mentor-chat/internal/config"
	"mentor-chat/internal/domain"
	"mentor-chat/internal/store"
	"mentor-chat/internal/transport"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	api := chatclient.NewClient(cfg.APIBaseURL)

	token, user, err := loginFlow(ctx, reader, api)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("Sesión iniciada como %s (%s)\n", user.DisplayName, user.Email)

	for {
		role, err := chat.ResolveRole(user)
		if errors.Is(err, domain.ErrRoleChoiceRequired) {
			role = chooseRoleFlow(reader)
		} else if errors.Is(err, domain.ErrAccessDenied) {
			fmt.Println("No tenés acceso al chat con esta cuenta.")
			return
		} else if err != nil {
			log.Fatalf("resolver rol: %v", err)
		}

		again := runChatSession(ctx, reader, cfg, api, user, role, token, logger)
		if !again {
			return
		}
		// Cambio de rol: la sesión anterior ya quedó desconectada.
	}
}

func loginFlow(ctx context.Context, reader *bufio.Reader, api *chatclient.Client) (string, domain.User, error) {
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	fmt.Print("Contraseña: ")
	password, _ := reader.ReadString('\n')

	token, err := api.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		return "", domain.User{}, err
	}
	user, err := api.Me(ctx)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

func chooseRoleFlow(reader *bufio.Reader) domain.Role {
	for {
		fmt.Println("\nTenés ambos roles. ¿Cómo querés usar el chat?")
		fmt.Println("[1] Estudiante (hablar con mentores)")
		fmt.Println("[2] Mentor (responder a estudiantes)")
		fmt.Print("Selección: ")
		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			return domain.RoleStudent
		case "2":
			return domain.RoleMentor
		default:
			fmt.Println("Selección inválida.")
		}
	}
}

// runChatSession arma el motor completo para un rol y corre el loop de
// comandos. Devuelve true si el usuario pidió cambiar de rol.
func runChatSession(
	ctx context.Context,
	reader *bufio.Reader,
	cfg *config.Config,
	api *chatclient.Client,
	user domain.User,
	role domain.Role,
	token string,
	logger *zap.Logger,
) bool {
	st := store.NewConversationStore(role)
	tr := transport.NewSession(cfg.WSURL, logger)
	session := chat.NewSession(st, tr, api, api, user, role, token, logger)
	defer session.Close()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := session.Connect(connectCtx)
	cancel()
	if err != nil {
		fmt.Printf("No se pudo conectar: %v\n", err)
		return false
	}
	fmt.Println("🟢 Conectado")

	go renderLoop(session)

	if role == domain.RoleStudent {
		if err := session.OpenConversation(ctx, ""); err != nil {
			fmt.Printf("Error cargando mensajes: %v\n", err)
		}
		printMessages(session, role)
	} else {
		printRooms(ctx, session)
	}

	fmt.Println("Comandos: /rooms, /open <studentId>, /read <messageId>, /rol, salir. Todo lo demás se envía como mensaje.")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "salir") || strings.EqualFold(line, "exit"):
			fmt.Println("Saliendo del chat...")
			return false
		case strings.EqualFold(line, "/rol"):
			return true
		case strings.EqualFold(line, "/rooms"):
			printRooms(ctx, session)
		case strings.HasPrefix(line, "/open "):
			studentID := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			if err := session.OpenConversation(ctx, studentID); err != nil {
				fmt.Printf("Error abriendo conversación: %v\n", err)
				continue
			}
			printMessages(session, role)
		case strings.HasPrefix(line, "/read "):
			session.MarkAsRead(strings.TrimSpace(strings.TrimPrefix(line, "/read ")))
		default:
			target := ""
			if role == domain.RoleMentor {
				target = session.Store().ActiveStudent()
			}
			if err := session.Send(ctx, line, "", target); err != nil {
				switch {
				case errors.Is(err, domain.ErrEmptyMessage):
					fmt.Println("El mensaje no puede estar vacío.")
				case errors.Is(err, domain.ErrMissingTarget):
					fmt.Println("Primero abrí una conversación con /open <studentId>.")
				default:
					fmt.Printf("Error enviando mensaje: %v\n", err)
				}
			}
		}
	}
}

// renderLoop imprime los mensajes nuevos a medida que el store cambia.
func renderLoop(session *chat.Session) {
	st := session.Store()
	changes := st.Subscribe()
	seen := len(st.Messages())
	for range changes {
		msgs := st.Messages()
		if len(msgs) < seen {
			seen = len(msgs)
		}
		for _, m := range msgs[seen:] {
			printMessage(m, session.Role())
		}
		seen = len(msgs)
		if !st.Connected() {
			fmt.Println("🔴 Desconectado")
		}
	}
}

func printRooms(ctx context.Context, session *chat.Session) {
	if session.Role() != domain.RoleMentor {
		fmt.Println("Solo el mentor tiene lista de salas.")
		return
	}
	rooms, err := session.ChatRooms(ctx)
	if err != nil {
		fmt.Printf("Error listando salas: %v\n", err)
		return
	}
	if len(rooms) == 0 {
		fmt.Println("Sin conversaciones todavía.")
		return
	}
	fmt.Println("Conversaciones:")
	for _, r := range rooms {
		preview := ""
		if r.Latest != nil {
			preview = r.Latest.Body
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
		}
		fmt.Printf("  %s  (%d sin leer)  %s\n", r.StudentID, r.UnreadCount, preview)
	}
}

func printMessages(session *chat.Session, role domain.Role) {
	for _, m := range session.Store().Messages() {
		printMessage(m, role)
	}
}

func printMessage(m domain.Message, role domain.Role) {
	who := "Estudiante"
	if m.SenderType == domain.SenderMentor {
		who = "Mentor"
	}
	if (role == domain.RoleMentor) == (m.SenderType == domain.SenderMentor) {
		who = "Vos"
	}
	read := ""
	if m.Read {
		read = " ✓"
	}
	fmt.Printf("[%s] %s: %s%s\n", m.CreatedAt.Local().Format("01/02 15:04"), who, m.Body, read)
}
