package handler

import (
	"attendance-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)
	case "login":
		h.login(message, args)
	case "logout":
		h.logout(message)
	case "profil":
		h.showProfile(message)

	// Siswa
	case "hadir":
		h.startPresence(message)
	case "sakit":
		h.startAbsence(message, models.StatusSick)
	case "izin":
		h.startAbsence(message, models.StatusExcused)
	case "batal":
		h.cancelSession(message)
	case "riwayat":
		h.showHistory(message)
	case "statistik":
		h.showStatistics(message)

	// Administrator: laporan
	case "rekap":
		h.showRecap(message, args)
	case "ekspor":
		h.exportMonth(message, args)

	// Administrator: data siswa
	case "siswa":
		h.listStudents(message, args)
	case "kelas":
		h.listClasses(message)
	case "tambahsiswa":
		h.addStudent(message, args)
	case "ubahsiswa":
		h.updateStudent(message, args)
	case "hapussiswa":
		h.deleteStudent(message, args)

	// Administrator: pengaturan
	case "pengaturan":
		h.showSettings(message)
	case "setnama":
		h.setSchoolName(message, args)
	case "setjam":
		h.setEntryTime(message, args)
	case "setradius":
		h.setRadius(message, args)
	case "setlokasi":
		h.setTarget(message, args)
	case "libur":
		h.listHolidays(message)
	case "tambahlibur":
		h.addHoliday(message, args)
	case "hapuslibur":
		h.removeHoliday(message, args)
	case "importlibur":
		h.importHolidays(message, args)

	// Administrator: notifikasi
	case "antrean":
		h.showQueue(message)
	case "kirim":
		h.sendNotification(message, args)
	case "hapuspesan":
		h.dismissNotification(message, args)
	case "cekterlambat":
		h.checkLate(message)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.send(message.Chat.ID, "❌ Perintah tidak dikenal. Gunakan /help untuk daftar perintah.")
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	text := `👋 Selamat datang di bot presensi sekolah!

Bot ini mencatat kehadiran siswa berdasarkan lokasi, menerima izin dan surat sakit, dan menyusun rekap untuk wali kelas.

🔐 Masuk dengan akun Anda:
/login <username> <password>

📋 Daftar perintah: /help`

	user, err := h.userService.CurrentUser(chatID)
	if err == nil && user != nil {
		text = "👋 Halo, *" + user.Name + "*!\n\nAnda sudah masuk. Gunakan /help untuk daftar perintah."
	}

	h.send(chatID, text)
}

const studentHelp = `🎒 *Perintah siswa:*
/hadir - presensi hadir dengan lokasi
/sakit - lapor sakit (kirim foto/dokumen bukti)
/izin - lapor izin (kirim foto/dokumen bukti)
/batal - batalkan langkah yang sedang berjalan
/riwayat - riwayat presensi
/statistik - statistik kehadiran bulan ini`

const adminHelp = `🛠 *Perintah administrator:*

📊 Laporan:
/rekap harian [YYYY-MM-DD] [kelas]
/rekap bulanan [bulan] [tahun] [kelas]
/rekap semester [ganjil|genap] [tahun] [kelas]
/ekspor [bulan] [tahun] [kelas] - file Excel

👥 Siswa:
/siswa [cari] - daftar siswa
/kelas - daftar kelas
/tambahsiswa username;nama;kelas;kontak
/ubahsiswa id;nama;kelas;kontak
/hapussiswa <id>

⚙️ Pengaturan:
/pengaturan - lihat pengaturan
/setnama <nama sekolah>
/setjam HH:mm - jam masuk
/setradius <meter>
/setlokasi [lat lng] - titik sekolah
/libur - daftar hari libur
/tambahlibur YYYY-MM-DD [keterangan]
/hapuslibur YYYY-MM-DD
/importlibur <file.json>

📨 Notifikasi:
/antrean - antrean pesan WhatsApp
/kirim <id> - buka pesan di WhatsApp
/hapuspesan <id>
/cekterlambat - cek siswa yang belum presensi`

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	text := `📋 *Perintah umum:*
/start - mulai
/help - bantuan
/login <username> <password> - masuk
/logout - keluar
/profil - profil akun`

	user, err := h.userService.CurrentUser(chatID)
	if err == nil && user != nil {
		if user.IsAdmin() {
			text += "\n\n" + adminHelp
		} else {
			text += "\n\n" + studentHelp
		}
	}

	h.send(chatID, text)
}
